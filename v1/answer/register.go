package answer

import (
	"fmt"

	"github.com/Aleph-Alpha/microcore/v1/extstr"
)

func init() {
	extstr.DefaultRegistry.Register("extract_number", func(text string, args ...any) (any, error) {
		opts := make([]NumberOption, 0, len(args))
		for i, a := range args {
			opt, ok := a.(NumberOption)
			if !ok {
				return nil, fmt.Errorf("extract_number: argument %d must be a NumberOption, got %T", i, a)
			}
			opts = append(opts, opt)
		}
		return ExtractNumber(text, opts...)
	})

	extstr.DefaultRegistry.Register("parse_json", func(text string, args ...any) (any, error) {
		raise := true
		var required []string
		for i, a := range args {
			switch v := a.(type) {
			case bool:
				raise = v
			case string:
				required = append(required, v)
			case []string:
				required = append(required, v...)
			default:
				return nil, fmt.Errorf("parse_json: unsupported argument %d of type %T", i, a)
			}
		}
		return ParseJSON(text, raise, required...)
	})

	extstr.DefaultRegistry.Register("parse", func(text string, args ...any) (any, error) {
		format := ""
		if len(args) > 0 {
			f, err := extstr.StringArg(args, 0)
			if err != nil {
				return nil, err
			}
			format = f
		}
		var required []string
		for i := 1; i < len(args); i++ {
			field, err := extstr.StringArg(args, i)
			if err != nil {
				return nil, err
			}
			required = append(required, field)
		}
		return ParseSections(text, format, required...)
	})
}
