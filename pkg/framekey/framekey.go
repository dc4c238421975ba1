// Package framekey builds object storage keys for uploaded frames.
//
// Keys are partitioned by calendar day in a fixed location so that the
// bucket a frame lands in never depends on the timezone of the host:
//
//	frames/<MM_DD_YYYY>/<unix_ms>-<filename>
//	frames/<MM_DD_YYYY>/<unix_ms>-<short_id>-<filename>
package framekey

import (
	"fmt"
	"path"
	"strings"
	"time"
	_ "time/tzdata" // fixed-location bucketing must not depend on host zoneinfo

	"github.com/google/uuid"
)

const (
	_defaultPrefix   = "frames"
	_defaultLocation = "America/New_York"

	delimiter    = "/"
	bucketLayout = "01_02_2006"
	shortIDLen   = 8
)

type Scheme struct {
	prefix  string
	loc     *time.Location
	shortID func() string
}

func New(opts ...Option) (*Scheme, error) {
	loc, err := time.LoadLocation(_defaultLocation)
	if err != nil {
		return nil, fmt.Errorf("framekey - New - time.LoadLocation: %w", err)
	}

	s := &Scheme{
		prefix:  _defaultPrefix,
		loc:     loc,
		shortID: randomShortID,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// DayBucket returns the MM_DD_YYYY label of the day t falls on in the
// scheme's location.
func (s *Scheme) DayBucket(t time.Time) string {
	return t.In(s.loc).Format(bucketLayout)
}

// Key is used for multipart uploads.
func (s *Scheme) Key(t time.Time, filename string) string {
	return fmt.Sprintf("%s%d-%s", s.DayPrefix(s.DayBucket(t)), t.UnixMilli(), Filename(filename, t))
}

// DisambiguatedKey adds a random token between the timestamp and the file
// name. Raw-body uploads from devices race on the same millisecond far more
// often than browser uploads.
func (s *Scheme) DisambiguatedKey(t time.Time, filename string) string {
	return fmt.Sprintf("%s%d-%s-%s", s.DayPrefix(s.DayBucket(t)), t.UnixMilli(), s.shortID(), Filename(filename, t))
}

func (s *Scheme) RootPrefix() string {
	return s.prefix + delimiter
}

func (s *Scheme) DayPrefix(bucket string) string {
	return s.prefix + delimiter + bucket + delimiter
}

func (s *Scheme) Delimiter() string {
	return delimiter
}

// BucketFromPrefix turns a common prefix returned by a delimited listing
// ("frames/11_14_2023/") back into its bucket label.
func (s *Scheme) BucketFromPrefix(p string) string {
	return strings.TrimSuffix(strings.TrimPrefix(p, s.RootPrefix()), delimiter)
}

// Filename strips directory components from name. An empty name is replaced
// with frame-<unix_ms>.
func Filename(name string, t time.Time) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, delimiter)
	if name != "" {
		name = path.Base(name)
	}

	if name == "" || name == "." || name == delimiter {
		return fmt.Sprintf("frame-%d", t.UnixMilli())
	}

	return name
}

func randomShortID() string {
	return uuid.NewString()[:shortIDLen]
}
