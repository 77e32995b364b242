package menu

import "fmt"

// Day is one day of the weekly grid. Values are ordered Monday first; the
// ordering is load-bearing for deterministic slot generation.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Days lists every day in grid order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Day) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("day(%d)", int(d))
	}
	return dayNames[d]
}

// ParseDay parses a lowercase day name.
func ParseDay(s string) (Day, error) {
	for i, name := range dayNames {
		if name == s {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// MarshalText implements encoding.TextMarshaler so Day works as a JSON map key.
func (d Day) MarshalText() ([]byte, error) {
	if d < Monday || d > Sunday {
		return nil, fmt.Errorf("invalid day %d", int(d))
	}
	return []byte(dayNames[d]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Meal is one meal type of the weekly grid, ordered as served through the day.
type Meal int

const (
	Breakfast Meal = iota
	Lunch
	Snack
	Dinner
	Supper
)

// Meals lists every meal type in grid order.
var Meals = []Meal{Breakfast, Lunch, Snack, Dinner, Supper}

var mealNames = [...]string{"breakfast", "lunch", "snack", "dinner", "supper"}

func (m Meal) String() string {
	if m < Breakfast || m > Supper {
		return fmt.Sprintf("meal(%d)", int(m))
	}
	return mealNames[m]
}

// ParseMeal parses a lowercase meal name.
func ParseMeal(s string) (Meal, error) {
	for i, name := range mealNames {
		if name == s {
			return Meal(i), nil
		}
	}
	return 0, fmt.Errorf("unknown meal %q", s)
}

// MarshalText implements encoding.TextMarshaler so Meal works as a JSON map key.
func (m Meal) MarshalText() ([]byte, error) {
	if m < Breakfast || m > Supper {
		return nil, fmt.Errorf("invalid meal %d", int(m))
	}
	return []byte(mealNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Meal) UnmarshalText(text []byte) error {
	parsed, err := ParseMeal(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
