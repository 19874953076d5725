/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package grain

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const maxTextureBytes = 32 << 20

// Fetcher loads textures from local paths, file:// urls or http(s). Names
// that are neither absolute paths nor urls resolve against BaseURL when it
// is set.
type Fetcher struct {
	Client  *http.Client
	BaseURL string
	Token   string
}

func (f *Fetcher) Load(ctx context.Context, ref string) (image.Image, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.get(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		return decodeFile(strings.TrimPrefix(ref, "file://"))
	case f.BaseURL != "" && !filepath.IsAbs(ref):
		return f.get(ctx, strings.TrimRight(f.BaseURL, "/")+"/"+strings.TrimLeft(ref, "/"))
	default:
		return decodeFile(ref)
	}
}

func (f *Fetcher) get(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("grain request: %w", err)
	}
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grain fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grain fetch %s: %s", url, resp.Status)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxTextureBytes))
	if err != nil {
		return nil, fmt.Errorf("grain decode %s: %w", url, err)
	}
	return img, nil
}

func decodeFile(path string) (image.Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grain open: %w", err)
	}
	defer func() { _ = fh.Close() }()
	img, _, err := image.Decode(io.LimitReader(fh, maxTextureBytes))
	if err != nil {
		return nil, fmt.Errorf("grain decode %s: %w", path, err)
	}
	return img, nil
}
