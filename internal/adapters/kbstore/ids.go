package kbstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry ids are structured as S<sem>_<SUBJECT>_M<module>_<serial>, e.g.
// "S3_AME_M1_001". The id doubles as a routing key: it names the semester,
// subject and module file the entry lives in.

var romanNumerals = map[int]string{
	1: "I", 2: "II", 3: "III", 4: "IV",
	5: "V", 6: "VI", 7: "VII", 8: "VIII",
}

// SemesterRoman renders a semester number as the roman numeral used in
// directory and file names.
func SemesterRoman(semester int) (string, error) {
	roman, ok := romanNumerals[semester]
	if !ok {
		return "", fmt.Errorf("unsupported semester %d", semester)
	}
	return roman, nil
}

// GenerateID builds a structured entry id.
func GenerateID(semester int, subject string, module, serial int) string {
	return fmt.Sprintf("S%d_%s_M%d_%03d", semester, subject, module, serial)
}

// ParseID splits a structured id into its routing components.
func ParseID(id string) (semester int, subject string, module int, err error) {
	parts := strings.Split(id, "_")
	if len(parts) < 4 {
		return 0, "", 0, fmt.Errorf("malformed entry id %q", id)
	}

	// Subject acronyms may themselves contain underscores; the module and
	// serial fields are always the last two.
	modPart := parts[len(parts)-2]

	if !strings.HasPrefix(parts[0], "S") {
		return 0, "", 0, fmt.Errorf("malformed entry id %q: missing semester prefix", id)
	}
	semester, err = strconv.Atoi(parts[0][1:])
	if err != nil {
		return 0, "", 0, fmt.Errorf("malformed entry id %q: bad semester: %w", id, err)
	}

	if !strings.HasPrefix(modPart, "M") {
		return 0, "", 0, fmt.Errorf("malformed entry id %q: missing module prefix", id)
	}
	module, err = strconv.Atoi(modPart[1:])
	if err != nil {
		return 0, "", 0, fmt.Errorf("malformed entry id %q: bad module: %w", id, err)
	}

	subject = strings.Join(parts[1:len(parts)-2], "_")
	if subject == "" {
		return 0, "", 0, fmt.Errorf("malformed entry id %q: empty subject", id)
	}
	return semester, subject, module, nil
}

// nextSerial returns one past the highest serial among existing ids.
// Unparseable ids are skipped rather than fatal; hand-edited files happen.
func nextSerial(ids []string) int {
	max := 0
	for _, id := range ids {
		parts := strings.Split(id, "_")
		if len(parts) == 0 {
			continue
		}
		serial, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			continue
		}
		if serial > max {
			max = serial
		}
	}
	return max + 1
}
