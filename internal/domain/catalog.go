package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNoItems = errors.New("payload has no items array")

// Catalog is the fetched AreTrails payload together with its parsed items.
// Data is kept for the raw dump; Items is filled once by ParseItems.
type Catalog struct {
	Items []*TrailItem    `json:"items"`
	Data  json.RawMessage `json:"data"`
}

func (c *Catalog) Store(data json.RawMessage) {
	c.Data = data
}

// ParseItems builds a TrailItem for every element of data.items in source
// order. Any invalid item aborts the parse and leaves Items unchanged.
func (c *Catalog) ParseItems() error {
	if len(c.Data) == 0 {
		return ErrNoItems
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(c.Data, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	rawItems, ok := payload["items"]
	if !ok || bytes.Equal(bytes.TrimSpace(rawItems), []byte("null")) {
		return ErrNoItems
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(rawItems, &elems); err != nil {
		return fmt.Errorf("decode items: %w", err)
	}

	items := make([]*TrailItem, 0, len(elems))
	for i, elem := range elems {
		dec := json.NewDecoder(bytes.NewReader(elem))
		dec.UseNumber()

		var raw map[string]any
		if err := dec.Decode(&raw); err != nil || raw == nil {
			return fmt.Errorf("item %d: %w", i, &ValidationError{Fields: []FieldError{{Field: "item", Reason: "expected object"}}})
		}

		item, err := NewTrailItem(raw)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	c.Items = items
	return nil
}

func (c *Catalog) Trails() []*TrailItem {
	var out []*TrailItem
	for _, item := range c.Items {
		if item.IsTrail() {
			out = append(out, item)
		}
	}
	return out
}

func (c *Catalog) MultiTrails() ([]*TrailItem, error) {
	return c.filterTrails((*TrailItem).IsMultiTrail)
}

func (c *Catalog) RidingTrails() ([]*TrailItem, error) {
	return c.filterTrails((*TrailItem).HasRidingActivity)
}

func (c *Catalog) BicycleTrails() ([]*TrailItem, error) {
	return c.filterTrails((*TrailItem).HasBikeActivity)
}

func (c *Catalog) HikingTrails() ([]*TrailItem, error) {
	return c.filterTrails((*TrailItem).HasHikeActivity)
}

func (c *Catalog) RunningTrails() ([]*TrailItem, error) {
	return c.filterTrails((*TrailItem).HasRunningActivity)
}

func (c *Catalog) TrailsWithActivity() ([]*TrailItem, error) {
	return c.filterTrails(func(t *TrailItem) (bool, error) {
		a, err := t.Activity()
		return len(a) > 0, err
	})
}

func (c *Catalog) TrailsWithoutActivity() ([]*TrailItem, error) {
	return c.filterTrails(func(t *TrailItem) (bool, error) {
		a, err := t.Activity()
		return len(a) == 0, err
	})
}

// TrailsWithUnsupportedActivity returns trails matching none of the
// hiking, riding, bicycle and running predicates.
func (c *Catalog) TrailsWithUnsupportedActivity() ([]*TrailItem, error) {
	predicates := []func(*TrailItem) (bool, error){
		(*TrailItem).HasHikeActivity,
		(*TrailItem).HasRidingActivity,
		(*TrailItem).HasBikeActivity,
		(*TrailItem).HasRunningActivity,
	}
	return c.filterTrails(func(t *TrailItem) (bool, error) {
		for _, p := range predicates {
			ok, err := p(t)
			if err != nil {
				return false, err
			}
			if ok {
				return false, nil
			}
		}
		return true, nil
	})
}

func (c *Catalog) filterTrails(keep func(*TrailItem) (bool, error)) ([]*TrailItem, error) {
	var out []*TrailItem
	for _, item := range c.Items {
		if !item.IsTrail() {
			continue
		}
		ok, err := keep(item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// Report counts every view of the catalog.
func (c *Catalog) Report() (Report, error) {
	r := Report{Trails: len(c.Trails())}

	counts := []struct {
		view func() ([]*TrailItem, error)
		dst  *int
	}{
		{c.MultiTrails, &r.MultiTrails},
		{c.HikingTrails, &r.Hiking},
		{c.BicycleTrails, &r.Bicycle},
		{c.RidingTrails, &r.Riding},
		{c.RunningTrails, &r.Running},
		{c.TrailsWithoutActivity, &r.WithoutActivity},
		{c.TrailsWithActivity, &r.WithActivity},
		{c.TrailsWithUnsupportedActivity, &r.Unsupported},
	}
	for _, cnt := range counts {
		items, err := cnt.view()
		if err != nil {
			return Report{}, err
		}
		*cnt.dst = len(items)
	}

	return r, nil
}
