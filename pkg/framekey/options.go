package framekey

import "time"

type Option func(*Scheme)

func Prefix(prefix string) Option {
	return func(s *Scheme) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func Location(loc *time.Location) Option {
	return func(s *Scheme) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// ShortID overrides the disambiguator generator.
func ShortID(f func() string) Option {
	return func(s *Scheme) {
		if f != nil {
			s.shortID = f
		}
	}
}
