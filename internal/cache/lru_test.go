/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package cache

import (
	"reflect"
	"testing"
)

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	var evicted []string
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })
	c.Put("a", 1)
	c.Put("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a missing")
	}
	c.Put("c", 3) // b is now the oldest
	if c.Contains("b") {
		t.Fatalf("b should have been evicted")
	}
	if !reflect.DeepEqual(evicted, []string{"b"}) {
		t.Fatalf("evicted=%v", evicted)
	}
	if got := c.Keys(); !reflect.DeepEqual(got, []string{"c", "a"}) {
		t.Fatalf("keys=%v", got)
	}
}

func TestPutReplacesAndRefreshes(t *testing.T) {
	c := New[int, string](2)
	c.Put(1, "x")
	c.Put(2, "y")
	c.Put(1, "z")
	c.Put(3, "w")
	if v, ok := c.Get(1); !ok || v != "z" {
		t.Fatalf("1 => %q,%v", v, ok)
	}
	if c.Contains(2) {
		t.Fatalf("2 should be evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("len=%d", c.Len())
	}
}

func TestRemoveAndClear(t *testing.T) {
	c := New[int, int](0)
	if c.Cap() != 1 {
		t.Fatalf("capacity floor not applied")
	}
	c.Put(1, 1)
	if !c.Remove(1) || c.Remove(1) {
		t.Fatalf("remove semantics broken")
	}
	c.Put(2, 2)
	c.Clear()
	if c.Len() != 0 || len(c.Keys()) != 0 {
		t.Fatalf("clear left entries")
	}
}
