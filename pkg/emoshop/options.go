package emoshop

type options struct {
	locale      string
	preferences []Preference
}

// Option configures a Recommender.
type Option func(*options)

// WithLocale sets the BCP 47 tag used for name ordering. Default: "en".
func WithLocale(tag string) Option {
	return func(o *options) {
		o.locale = tag
	}
}

// WithPreferences replaces the built-in preference table. The entries must
// include a neutral entry and name each emotion at most once.
func WithPreferences(entries []Preference) Option {
	return func(o *options) {
		o.preferences = entries
	}
}

func defaultOptions() options {
	return options{locale: "en"}
}
