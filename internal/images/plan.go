// Package images mirrors catalog images to local disk.
package images

import (
	"fmt"
	"path/filepath"
	"strings"

	"g2-yoyodex/internal/model"
	"g2-yoyodex/internal/normalize"
)

// Task is one image to mirror.
type Task struct {
	Identity string `json:"identity"`
	URL      string `json:"url"`
	Path     string `json:"path"`
}

// Plan lists one task per image of every item: the main image first, then
// the additional ones. The placeholder and blank URLs are skipped, and a URL
// already planned for the same item is not planned twice.
//
// Files land at <dir>/<model>/<model>_<colorway>[_n].jpg, n counting from 2.
func Plan(items []model.CatalogItem, dir, placeholder string) []Task {
	var tasks []Task
	taken := make(map[string]bool)

	for _, it := range items {
		modelSlug := orUnknown(normalize.Slug(it.Model))
		base := modelSlug + "_" + orUnknown(normalize.Slug(it.Colorway))

		urls := append([]string{it.ImageURL}, it.AdditionalImages...)
		seen := make(map[string]bool, len(urls))
		n := 0
		for _, u := range urls {
			u = strings.TrimSpace(u)
			if u == "" || u == placeholder || normalize.IsPlaceholder(u) || seen[u] {
				continue
			}
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				continue
			}
			seen[u] = true
			n++

			name := base
			if n > 1 {
				name = fmt.Sprintf("%s_%d", base, n)
			}
			path := filepath.Join(dir, modelSlug, name+".jpg")
			// two colorways slugging alike must not overwrite each other
			for k := 2; taken[path]; k++ {
				path = filepath.Join(dir, modelSlug, fmt.Sprintf("%s~%d.jpg", name, k))
			}
			taken[path] = true

			tasks = append(tasks, Task{Identity: it.Identity, URL: u, Path: path})
		}
	}
	return tasks
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
