package cli

import "strconv"

// OptionalInt is a flag.Value that remembers whether the flag was supplied.
// The run-duration selectors need this: a zero value and an absent flag mean
// different things when enforcing mutual exclusion.
type OptionalInt struct {
	value int
	set   bool
}

func (o *OptionalInt) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	o.value = v
	o.set = true
	return nil
}

func (o *OptionalInt) String() string {
	if !o.set {
		return ""
	}
	return strconv.Itoa(o.value)
}

// Value reports the parsed value and whether the flag was supplied.
func (o *OptionalInt) Value() (int, bool) {
	return o.value, o.set
}

// Ptr returns the value as a pointer, nil when the flag was not supplied.
func (o *OptionalInt) Ptr() *int {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}
