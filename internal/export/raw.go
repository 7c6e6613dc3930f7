package export

import (
	"encoding/json"
	"fmt"
	"os"

	"trail_catalog/internal/domain"
)

// SaveRaw dumps the catalog (parsed items plus the raw payload) as indented
// JSON, replacing any existing file.
func SaveRaw(path string, c *domain.Catalog) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json dump: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close json dump: %w", cerr)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode json dump: %w", err)
	}
	return nil
}
