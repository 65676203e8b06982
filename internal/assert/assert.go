package assert

import "fmt"

// NotNil panics if value is nil, name identifies the argument in the panic message.
func NotNil(value any, name string) {
	if value == nil {
		panic(fmt.Sprintf("expected %s to be not nil", name))
	}
}

func NotEmptyStr(str, name string) {
	if str == "" {
		panic(fmt.Sprintf("expected %s to be a non-empty string", name))
	}
}

func NonNegative[T ~int | ~int64 | ~float64](value T, name string) {
	if value < 0 {
		panic(fmt.Sprintf("expected %s to be >= 0, got %v", name, value))
	}
}
