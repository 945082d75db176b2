// Package tag models the closed set of severity tags the analyser counts.
package tag

// Tag is one categorical label counted by the analyser. The set is closed:
// the four recognized severity levels plus a reserved ReadError variant
// used when a file cannot be read at all.
type Tag int

const (
	Debug Tag = iota
	Error
	Info
	Warn
	ReadError
	numTags
)

var names = [numTags]string{"DEBUG", "ERROR", "INFO", "WARN", "FILES_OPEN_ERRORS"}

func (t Tag) String() string {
	if t < 0 || t >= numTags {
		return "UNKNOWN"
	}
	return names[t]
}

// Parse maps a severity string from a log line to its Tag. Strings outside
// the recognized set (and the reserved ReadError name) report ok=false and
// are simply not counted.
func Parse(s string) (Tag, bool) {
	switch s {
	case "DEBUG":
		return Debug, true
	case "ERROR":
		return Error, true
	case "INFO":
		return Info, true
	case "WARN":
		return Warn, true
	}
	return numTags, false
}

// Recognized returns the severity tags in report order. ReadError is not a
// severity level and is excluded; it is reported separately.
func Recognized() []Tag {
	return []Tag{Debug, Error, Info, Warn}
}

// Counts holds one occurrence counter per Tag. The zero value is ready to
// use. A Counts is owned by a single participant until it is sent; merging
// is a plain element-wise sum, so fold order never changes the totals.
type Counts [numTags]int

// Inc adds one occurrence of t.
func (c *Counts) Inc(t Tag) {
	c[t]++
}

// Add folds other into c. Add is commutative and associative.
func (c *Counts) Add(other Counts) {
	for i := range c {
		c[i] += other[i]
	}
}

// Get returns the count for t.
func (c Counts) Get(t Tag) int {
	return c[t]
}

// Errors returns the reserved read-error count.
func (c Counts) Errors() int {
	return c[ReadError]
}

// Total returns the sum over every recognized severity tag, excluding
// read errors.
func (c Counts) Total() int {
	n := 0
	for _, t := range Recognized() {
		n += c[t]
	}
	return n
}
