package utils

func BoolPtr(b bool) *bool {
	return &b
}

func IntPtr(i int) *int {
	return &i
}

func Float64Ptr(f float64) *float64 {
	return &f
}

func StringPtr(s string) *string {
	return &s
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtrOrNil trims s and returns nil when nothing is left, so optional
// text columns store NULL instead of empty strings.
func StringPtrOrNil(s string) *string {
	s = TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
