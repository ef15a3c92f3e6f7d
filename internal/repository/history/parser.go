package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/node-patcher/internal/domain/maintenance"
)

// beginTimeLayouts are the date renderings of dnf 4 and yum (ctime), dnf 5 (ISO)
// and a day/month/year form, all independent of the C locale month names order.
//
//nolint:gochecknoglobals // Read-only lookup table.
var beginTimeLayouts = []string{
	"Mon Jan _2 15:04:05 2006",
	"Mon Jan 2 15:04:05 2006",
	"Mon 02 Jan 2006 03:04:05 PM MST",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

var (
	// errNoBeginTime is returned when the report has no "Begin time" line.
	errNoBeginTime = errors.New("transaction report has no begin time")
	// errBadBeginTime is returned when the begin time matches no known layout.
	errBadBeginTime = errors.New("unrecognized begin time")

	// actionPattern matches "<Marker> <package> [<reason>] [<repository>]" package lines.
	actionPattern = regexp.MustCompile(`^([A-Z][A-Za-z-]*)\s+(\S+)(.*)$`)
)

// knownActions are the action markers printed by dnf and yum.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownActions = map[string]struct{}{
	"Install":       {},
	"Installed":     {},
	"Upgrade":       {},
	"Upgraded":      {},
	"Downgrade":     {},
	"Downgraded":    {},
	"Reinstall":     {},
	"Reinstalled":   {},
	"Removed":       {},
	"Erase":         {},
	"Obsoleting":    {},
	"Obsoleted":     {},
	"Dep-Install":   {},
	"Reason-Change": {},
	"Updated":       {},
	"Update":        {},
}

// Parse reads a transaction report such as the output of `dnf history info last`.
// The begin time is interpreted in loc. Lines have no length limit: scriptlet
// output can carry arbitrarily long lines.
func Parse(r io.Reader, loc *time.Location) (*maintenance.Transaction, error) {
	if loc == nil {
		loc = time.Local
	}

	var (
		tx        maintenance.Transaction
		beginSeen bool
		reader    = bufio.NewReader(r)
	)

	for {
		raw, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read transaction report: %w", readErr)
		}

		seen, err := parseLine(&tx, strings.TrimSpace(raw), loc)
		if err != nil {
			return nil, err
		}

		beginSeen = beginSeen || seen

		if readErr != nil {
			break
		}
	}

	if !beginSeen {
		return nil, errNoBeginTime
	}

	return &tx, nil
}

// parseLine folds one report line into tx and reports whether it was the begin time.
func parseLine(tx *maintenance.Transaction, line string, loc *time.Location) (bool, error) {
	if line == "" {
		return false, nil
	}

	if key, value, ok := splitField(line); ok {
		switch key {
		case "Transaction ID":
			// dnf prints ranges like "42..43" for merged transactions.
			id, _, _ := strings.Cut(value, ".")
			tx.ID, _ = strconv.Atoi(strings.TrimSpace(id))
		case "Begin time":
			begin, err := parseBeginTime(value, loc)
			if err != nil {
				return false, err
			}

			tx.BeginTime = begin

			return true, nil
		}

		return false, nil
	}

	if action, ok := parseAction(line); ok {
		tx.Actions = append(tx.Actions, action)
	}

	return false, nil
}

// splitField splits "Key   : value" header lines.
func splitField(line string) (string, string, bool) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}

	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, "\t") || strings.Count(key, " ") > 3 {
		return "", "", false
	}

	// Package lines such as "Upgrade docker-ce-3:27.1.2..." also contain a colon
	// but their key has no space-separated words after a known marker.
	if _, isAction := knownActions[strings.Fields(key)[0]]; isAction {
		return "", "", false
	}

	return key, strings.TrimSpace(value), true
}

// parseAction parses a package line.
func parseAction(line string) (maintenance.Action, bool) {
	matches := actionPattern.FindStringSubmatch(line)
	if matches == nil {
		return maintenance.Action{}, false
	}

	if _, ok := knownActions[matches[1]]; !ok {
		return maintenance.Action{}, false
	}

	var repository string
	if rest := strings.Fields(matches[3]); len(rest) > 0 {
		repository = rest[len(rest)-1]
	}

	return maintenance.Action{
		Kind:       matches[1],
		Package:    matches[2],
		Repository: repository,
		Line:       line,
	}, true
}

// parseBeginTime tries every known layout.
func parseBeginTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.Join(strings.Fields(value), " ")

	for _, layout := range beginTimeLayouts {
		if begin, err := time.ParseInLocation(layout, value, loc); err == nil {
			return begin, nil
		}
	}

	return time.Time{}, fmt.Errorf("%q: %w", value, errBadBeginTime)
}
