package xmetrics

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateRegistration 同名指标已注册
	ErrDuplicateRegistration = errors.New("xmetrics: duplicate metric registration")

	// ErrLabelArity 标签值数量与描述符不一致
	ErrLabelArity = errors.New("xmetrics: label arity mismatch")

	// ErrEmptyName 指标名为空
	ErrEmptyName = errors.New("xmetrics: metric name is required")

	// ErrNegativeCounter Counter 只能递增
	ErrNegativeCounter = errors.New("xmetrics: counter cannot decrease")

	// ErrInvalidPercentile 分位数必须在 (0, 1) 区间
	ErrInvalidPercentile = errors.New("xmetrics: percentile must be in (0, 1)")
)

// DuplicateRegistrationError 描述一次重复注册。
type DuplicateRegistrationError struct {
	Name string
	// Existing 已注册指标的类型；冲突来自底层注册表时为空
	Existing Kind
}

func (e *DuplicateRegistrationError) Error() string {
	if e.Existing == "" {
		return fmt.Sprintf("xmetrics: metric %q already registered", e.Name)
	}
	return fmt.Sprintf("xmetrics: metric %q already registered as %s", e.Name, e.Existing)
}

// Is 使 errors.Is(err, ErrDuplicateRegistration) 成立。
func (e *DuplicateRegistrationError) Is(target error) bool {
	return target == ErrDuplicateRegistration
}

// LabelArityError 描述一次标签数量不匹配。
type LabelArityError struct {
	Name string
	Want int
	Got  int
}

func (e *LabelArityError) Error() string {
	return fmt.Sprintf("xmetrics: metric %q expects %d label values, got %d", e.Name, e.Want, e.Got)
}

// Is 使 errors.Is(err, ErrLabelArity) 成立。
func (e *LabelArityError) Is(target error) bool {
	return target == ErrLabelArity
}
