package apierror

// Options selects the display policy for Present. Shape classification
// lives in Normalize; this only decides how much of it the user sees.
type Options struct {
	// ShowAllErrors surfaces every simultaneous message instead of just
	// the first, so a form with several invalid inputs reports them all
	// in one pass.
	ShowAllErrors bool

	// IncludeFieldNames prefixes validation messages with "field: ".
	IncludeFieldNames bool
}

// DefaultOptions matches the default UI policy: show everything, no
// field-name prefixes.
func DefaultOptions() Options {
	return Options{ShowAllErrors: true}
}

// Present maps a normalized error to user-visible text, invoking emit
// once per message. translate turns a message key into localized text and
// may return "" for unknown keys, in which case the key itself is shown.
func Present(e *Error, translate func(string) string, emit func(string), opts Options) {
	if e == nil {
		return
	}

	tr := func(key string) string {
		if translate != nil {
			if out := translate(key); out != "" {
				return out
			}
		}
		return key
	}

	if len(e.Fields) > 0 {
		if !opts.ShowAllErrors {
			for _, f := range e.Fields {
				if len(f.Messages) == 0 {
					continue
				}
				emit(renderFieldMessage(f, f.Messages[0], tr, opts))
				return
			}
			emit(tr(e.Message))
			return
		}

		for _, f := range e.Fields {
			for _, msg := range f.Messages {
				emit(renderFieldMessage(f, msg, tr, opts))
			}
		}
		return
	}

	if len(e.Details) > 1 && opts.ShowAllErrors {
		for _, msg := range e.Details {
			emit(tr(msg))
		}
		return
	}

	emit(tr(e.Message))
}

func renderFieldMessage(f FieldError, msg string, tr func(string) string, opts Options) string {
	translated := tr(msg)
	if opts.IncludeFieldNames {
		return f.Field + ": " + translated
	}
	return translated
}
