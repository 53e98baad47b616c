package stdlib

import (
	"fmt"

	"lua/interpreter-go/pkg/runtime"
)

// ToDisplayString renders a value the way `print` and `tostring`
// present it.
func ToDisplayString(val runtime.Value) string {
	switch v := val.(type) {
	case runtime.StringValue:
		return v.Val
	case runtime.BoolValue:
		if v.Val {
			return "true"
		}
		return "false"
	case runtime.NumberValue:
		return formatNumber(v.Val)
	case runtime.NilValue:
		return "nil"
	case *runtime.Table:
		return fmt.Sprintf("table: %p", v)
	case *runtime.Function:
		return fmt.Sprintf("function: %p", v)
	default:
		return fmt.Sprintf("%s", val.Kind())
	}
}
