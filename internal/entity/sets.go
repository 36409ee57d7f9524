package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SkillSet is a normalised set of skill names: trimmed, lower-cased,
// de-duplicated and sorted. It is stored as a comma-joined TEXT column.
type SkillSet []string

func NewSkillSet(skills ...string) SkillSet {
	seen := make(map[string]struct{}, len(skills))
	out := make(SkillSet, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ParseSkillSet splits the comma-separated form input ("fotografia, gotowanie").
func ParseSkillSet(raw string) SkillSet {
	return NewSkillSet(strings.Split(raw, ",")...)
}

func (s SkillSet) Contains(skill string) bool {
	skill = strings.ToLower(strings.TrimSpace(skill))
	i := sort.SearchStrings(s, skill)
	return i < len(s) && s[i] == skill
}

func (s SkillSet) String() string {
	return strings.Join(s, ",")
}

func (s SkillSet) Value() (driver.Value, error) {
	return s.String(), nil
}

func (s *SkillSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = SkillSet{}
	case string:
		*s = ParseSkillSet(v)
	case []byte:
		*s = ParseSkillSet(string(v))
	default:
		return fmt.Errorf("skill set: unsupported type %T", src)
	}
	return nil
}

func (s SkillSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

type Badge string

// BadgeTeachingMaster is awarded after the tenth completed session as teacher.
const BadgeTeachingMaster Badge = "Mistrz Nauczania"

// BadgeSet holds each badge at most once, sorted.
type BadgeSet []Badge

// Add inserts b and reports whether the set changed.
func (s *BadgeSet) Add(b Badge) bool {
	if s.Has(b) {
		return false
	}
	*s = append(*s, b)
	sort.Slice(*s, func(i, j int) bool { return (*s)[i] < (*s)[j] })
	return true
}

func (s BadgeSet) Has(b Badge) bool {
	for _, have := range s {
		if have == b {
			return true
		}
	}
	return false
}

func (s BadgeSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Badge(s))
}

type Category string

const (
	CategoryLanguages  Category = "Języki"
	CategoryArt        Category = "Sztuka"
	CategoryTechnology Category = "Technologia"
	CategoryOther      Category = "Inne"
)

// CategoryInfo is one entry of the fixed catalogue with example skills.
type CategoryInfo struct {
	Name   Category `json:"name"`
	Skills []string `json:"skills"`
}

var catalogue = []CategoryInfo{
	{CategoryLanguages, []string{"angielski", "hiszpański", "niemiecki"}},
	{CategoryArt, []string{"fotografia", "malarstwo", "taniec"}},
	{CategoryTechnology, []string{"programowanie", "grafika komputerowa", "cyberbezpieczeństwo"}},
	{CategoryOther, []string{"gotowanie", "joga", "ogrodnictwo"}},
}

// Categories returns a copy of the catalogue in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(catalogue))
	for i, c := range catalogue {
		out[i] = CategoryInfo{Name: c.Name, Skills: append([]string(nil), c.Skills...)}
	}
	return out
}

// Valid reports whether c is in the catalogue. The empty category is allowed.
func (c Category) Valid() bool {
	if c == "" {
		return true
	}
	for _, info := range catalogue {
		if info.Name == c {
			return true
		}
	}
	return false
}
