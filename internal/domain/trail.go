package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	ClassTrail = "trail"

	trailURLPrefix = "https://www.aretrails.com/trail/"
	gpxURLFormat   = "https://func-gaiaplaces-aretrails.azurewebsites.net/api/ContentItem/geo/%s/gpx?networkId=%s&draft=0&code="
)

// TrailItem is one entry of the catalog's items array. Content and Properties
// keep the upstream payload as-is; every accessor below reads from them on
// each call.
type TrailItem struct {
	ID          string         `json:"id"`
	ObjectClass string         `json:"objectClass"`
	Content     map[string]any `json:"content"`
	Properties  map[string]any `json:"properties"`
	NetworkID   string         `json:"networkId"`
}

// TrailRow is the flattened form of a trail shared by the CSV export, the
// snapshot store and the report publisher.
type TrailRow struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Number        string  `json:"number"`
	ActivityKey   string  `json:"activity_key"`
	ActivityLabel string  `json:"activity_label"`
	MultiTrail    bool    `json:"multitrail"`
	Length        int     `json:"length"`
	LengthKm      float64 `json:"length_km"`
	URL           string  `json:"url"`
	GPXURL        string  `json:"gpx"`
}

// NewTrailItem builds a TrailItem from one decoded catalog object.
func NewTrailItem(raw map[string]any) (*TrailItem, error) {
	verr := &ValidationError{}
	item := &TrailItem{
		ID:          requiredString(raw, "id", verr),
		ObjectClass: requiredString(raw, "objectClass", verr),
		NetworkID:   requiredString(raw, "networkId", verr),
		Content:     optionalObject(raw, "content", verr),
		Properties:  optionalObject(raw, "properties", verr),
	}
	if !verr.empty() {
		return nil, verr
	}
	return item, nil
}

func requiredString(raw map[string]any, field string, verr *ValidationError) string {
	v, ok := raw[field]
	if !ok || v == nil {
		verr.add(field, "field required")
		return ""
	}
	s, ok := v.(string)
	if !ok {
		verr.add(field, fmt.Sprintf("expected string, got %T", v))
		return ""
	}
	return s
}

func optionalObject(raw map[string]any, field string, verr *ValidationError) map[string]any {
	v, ok := raw[field]
	if !ok || v == nil {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		verr.add(field, fmt.Sprintf("expected object, got %T", v))
		return nil
	}
	return m
}

// Activity returns content.activity. A trail with content but no activity
// object yields an empty map; a trail without content is an error.
func (t *TrailItem) Activity() (map[string]any, error) {
	if len(t.Content) == 0 {
		return nil, fmt.Errorf("trail %s: %w", t.ID, ErrMissingContent)
	}
	if a, ok := t.Content["activity"].(map[string]any); ok {
		return a, nil
	}
	return map[string]any{}, nil
}

// ActivityTag returns the activity as a value object.
func (t *TrailItem) ActivityTag() (Activity, error) {
	a, err := t.Activity()
	if err != nil {
		return Activity{}, err
	}
	return ActivityFrom(a), nil
}

func (t *TrailItem) ActivityKey() (string, error) {
	tag, err := t.ActivityTag()
	if err != nil {
		return "", err
	}
	return tag.Key, nil
}

func (t *TrailItem) HasRunningActivity() (bool, error) {
	return t.activityKeyContains("running")
}

func (t *TrailItem) HasRidingActivity() (bool, error) {
	return t.activityKeyContains("riding")
}

func (t *TrailItem) HasHikeActivity() (bool, error) {
	return t.activityKeyContains("hiking")
}

// HasBikeActivity matches both regular and gravel cycling keys.
func (t *TrailItem) HasBikeActivity() (bool, error) {
	return t.activityKeyContains("bicycle", "gravel")
}

func (t *TrailItem) activityKeyContains(subs ...string) (bool, error) {
	key, err := t.ActivityKey()
	if err != nil {
		return false, err
	}
	for _, s := range subs {
		if strings.Contains(key, s) {
			return true, nil
		}
	}
	return false, nil
}

// IsMultiTrail reads properties.isMultiTrail. A null flag counts as false.
func (t *TrailItem) IsMultiTrail() (bool, error) {
	if t.Properties == nil {
		return false, fmt.Errorf("trail %s: %w", t.ID, ErrMissingProperties)
	}
	v, ok := t.Properties["isMultiTrail"]
	if !ok {
		return false, fmt.Errorf("trail %s: %w", t.ID, &FieldError{Field: "properties.isMultiTrail", Reason: "field required"})
	}
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	default:
		return false, fmt.Errorf("trail %s: %w", t.ID, &FieldError{Field: "properties.isMultiTrail", Reason: fmt.Sprintf("expected bool, got %T", v)})
	}
}

func (t *TrailItem) URL() string {
	return trailURLPrefix + t.ID
}

func (t *TrailItem) Title() (string, error) {
	if len(t.Content) == 0 {
		return "", fmt.Errorf("trail %s: %w", t.ID, ErrMissingContent)
	}
	v, ok := t.Content["title"]
	if !ok {
		return "", fmt.Errorf("trail %s: %w", t.ID, &FieldError{Field: "content.title", Reason: "field required"})
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(s), nil
	}
}

// Length is the trail distance in whole meters, truncated. Missing, falsy,
// non-finite or out of range distances give 0.
func (t *TrailItem) Length() int {
	m, ok := t.distanceMeters()
	if !ok {
		return 0
	}
	return int(m)
}

// LengthInKm is the distance in kilometers rounded to one decimal. The
// rounding works on the exact binary value, so 3550 m gives 3.5.
func (t *TrailItem) LengthInKm() float64 {
	m, ok := t.distanceMeters()
	if !ok {
		return 0
	}
	km, err := strconv.ParseFloat(strconv.FormatFloat(m/1000, 'f', 1, 64), 64)
	if err != nil {
		return math.Round(m/100) / 10
	}
	return km
}

func (t *TrailItem) distanceMeters() (float64, bool) {
	f, ok := toFloat(t.Properties["trailDistanceMeter"])
	if !ok || f == 0 || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return f, true
}

func (t *TrailItem) Number() string {
	switch v := t.Properties["trailNumber"].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (t *TrailItem) Class() string {
	return t.ObjectClass
}

func (t *TrailItem) IsTrail() bool {
	return t.ObjectClass == ClassTrail
}

func (t *TrailItem) GPXURL() string {
	return fmt.Sprintf(gpxURLFormat, t.ID, t.NetworkID)
}

// Row flattens the trail for exporters.
func (t *TrailItem) Row() (TrailRow, error) {
	title, err := t.Title()
	if err != nil {
		return TrailRow{}, err
	}
	tag, err := t.ActivityTag()
	if err != nil {
		return TrailRow{}, err
	}
	multi, err := t.IsMultiTrail()
	if err != nil {
		return TrailRow{}, err
	}

	return TrailRow{
		ID:            t.ID,
		Title:         title,
		Number:        t.Number(),
		ActivityKey:   tag.Key,
		ActivityLabel: tag.Value,
		MultiTrail:    multi,
		Length:        t.Length(),
		LengthKm:      t.LengthInKm(),
		URL:           t.URL(),
		GPXURL:        t.GPXURL(),
	}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
