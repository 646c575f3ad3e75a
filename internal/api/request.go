package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"expenseapi/internal/core"
	"expenseapi/internal/storage"
)

const dateLayout = "2006-01-02"

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", core.ErrInvalidInput)
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s", core.ErrInvalidInput, name)
	}
	return id, nil
}

func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", core.ErrInvalidInput, name)
	}
	return v, nil
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", core.ErrInvalidInput, name)
	}
	return &t, nil
}

func queryInt(r *http.Request, name, fallback string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		raw = fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", core.ErrInvalidInput, name)
	}
	return v, nil
}

// queryCategoryIDs merges the single categoryId parameter with the
// categoryIds CSV list.
func queryCategoryIDs(r *http.Request) ([]int64, error) {
	var ids []int64
	if raw := strings.TrimSpace(r.URL.Query().Get("categoryId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: categoryId must be a number", core.ErrInvalidInput)
		}
		ids = append(ids, id)
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("categoryIds")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: categoryIds must be a comma-separated list of numbers", core.ErrInvalidInput)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// querySort parses "field,dir" into a storage sort, defaulting to date
// descending.
func querySort(r *http.Request) storage.Sort {
	raw := strings.TrimSpace(r.URL.Query().Get("sort"))
	if raw == "" {
		return storage.DefaultSort()
	}
	parts := strings.SplitN(raw, ",", 2)
	sort := storage.Sort{Field: strings.TrimSpace(parts[0]), Desc: true}
	if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "asc") {
		sort.Desc = false
	}
	return sort
}

// yearMonthParams reads the {year}/{month} route segments.
func yearMonthParams(r *http.Request) (int, int, error) {
	year, err := intParam(r, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err := intParam(r, "month")
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}
