package models

import (
	"encoding/json"
	"math"
)

// OptFloat is a real number that may be absent. Absent values never satisfy
// a threshold comparison and encode to JSON as null.
type OptFloat struct {
	Value float64
	Valid bool
}

// SomeFloat returns a present OptFloat. NaN and infinities are treated as absent.
func SomeFloat(v float64) OptFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return OptFloat{}
	}
	return OptFloat{Value: v, Valid: true}
}

// NoFloat returns an absent OptFloat.
func NoFloat() OptFloat { return OptFloat{} }

// AtLeast reports whether the value is present and >= min.
func (o OptFloat) AtLeast(min float64) bool {
	return o.Valid && o.Value >= min
}

func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = OptFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = SomeFloat(v)
	return nil
}

// OptInt is a non-negative count that may be absent.
type OptInt struct {
	Value int64
	Valid bool
}

func SomeInt(v int64) OptInt { return OptInt{Value: v, Valid: true} }

func NoInt() OptInt { return OptInt{} }

// AtLeast reports whether the value is present and >= min.
func (o OptInt) AtLeast(min int64) bool {
	return o.Valid && o.Value >= min
}

// Float widens the count to an OptFloat.
func (o OptInt) Float() OptFloat {
	if !o.Valid {
		return OptFloat{}
	}
	return OptFloat{Value: float64(o.Value), Valid: true}
}

func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = OptInt{}
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = SomeInt(v)
	return nil
}
