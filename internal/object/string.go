package object

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// String is an immutable heap string. Hash is computed once at
// construction, matching the reference implementation's FNV-style
// interned-string hashing (short strings are expected to be hashed
// exactly once and reused many times as map keys).
type String struct {
	Base
	Text string
	hash uint32
}

// NewString constructs a heap string, computing its hash eagerly.
func NewString(text string) *String {
	return &String{
		Base: Base{Kind: KindString},
		Text: text,
		hash: fnvHash(text),
	}
}

// Hash returns the string's precomputed FNV-1a hash, used by Map.
func (s *String) Hash() uint32 { return s.hash }

func (s *String) Len() int { return len(s.Text) }

// Lower returns the text with every Unicode letter mapped to lower case.
func (s *String) Lower() string { return strings.ToLower(s.Text) }

// Upper returns the text with every Unicode letter mapped to upper case.
func (s *String) Upper() string { return strings.ToUpper(s.Text) }

// Strip returns the text with leading/trailing whitespace removed.
func (s *String) Strip() string { return strings.TrimSpace(s.Text) }

// Replace returns the text with up to count occurrences of old replaced
// by new; count<0 replaces every occurrence, matching Go's own
// strings.Replace "negative count means all" convention.
func (s *String) Replace(old, new string, count int) string {
	return strings.Replace(s.Text, old, new, count)
}

// Split divides the text on every occurrence of sep (an empty sep is
// not special-cased: it splits into runes, matching Go's strings.Split).
func (s *String) Split(sep string) []string {
	return strings.Split(s.Text, sep)
}

// Join concatenates parts with the receiver's text as separator: the
// receiver is the separator, the argument the list of strings to join.
func (s *String) Join(parts []string) string {
	return strings.Join(parts, s.Text)
}

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// Format substitutes '$' with the next extra argument rendered as a Go
// %v, and '@' with the next extra argument rendered via its String()
// method if it implements fmt.Stringer, otherwise also %v. This mirrors
// the two placeholder forms documented in the reference implementation:
// '$' for a raw C string and '@' for a String object.
func (s *String) Format(args ...interface{}) string {
	var b strings.Builder
	argi := 0
	next := func() interface{} {
		if argi < len(args) {
			v := args[argi]
			argi++
			return v
		}
		return ""
	}
	for i := 0; i < len(s.Text); i++ {
		c := s.Text[i]
		if (c == '$' || c == '@') && argi < len(args) {
			v := next()
			if str, ok := v.(interface{ String() string }); ok {
				b.WriteString(str.String())
			} else {
				b.WriteString(toStr(v))
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func toStr(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
