package domain

// Activity is the sport tag attached to a trail's content, e.g.
// {"key": "bicycle-dh", "value": "DH"}.
type Activity struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func ActivityFrom(m map[string]any) Activity {
	key, _ := m["key"].(string)
	value, _ := m["value"].(string)
	return Activity{Key: key, Value: value}
}

