package todos

import "encoding/json"

type Todo struct {
	ID        string  `json:"id"`
	Title     *string `json:"title"`
	Completed bool    `json:"completed"`
}

// OptionalString tells an absent JSON field apart from an explicit null.
// Set is true whenever the field was present, even when Value is nil.
type OptionalString struct {
	Set   bool
	Value *string
}

func SetString(v *string) OptionalString {
	return OptionalString{Set: true, Value: v}
}

// UnmarshalJSON is only called for present fields, including null.
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	return json.Unmarshal(b, &o.Value)
}

// Patch carries the fields of an update; absent fields keep their stored value.
type Patch struct {
	Title     OptionalString `json:"title"`
	Completed *bool          `json:"completed"`
}

func (p Patch) IsEmpty() bool {
	return !p.Title.Set && p.Completed == nil
}

func (p Patch) apply(t Todo) Todo {
	if p.Title.Set {
		t.Title = copyString(p.Title.Value)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}
