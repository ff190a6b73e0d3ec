package handler

import (
    "encoding/json"
    "fmt"
    "net/mail"
    "regexp"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/restaurant-reservation/internal/service"
)

const (
    dateLayout     = "2006-01-02"
    dateTimeLayout = "2006-01-02 15:04"
)

var (
    yearPart   = `(20[2-9]\d|2[1-9]\d{2})`
    dateRe     = regexp.MustCompile(`^` + yearPart + `-\d{2}-\d{2}$`)
    dateTimeRe = regexp.MustCompile(`^` + yearPart + `-\d{2}-\d{2} \d{2}:\d{2}$`)
    idRe       = regexp.MustCompile(`^[1-9]\d{0,9}$`)
    priceRe    = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

// Column limits for money: DECIMAL(4,2) on menus, DECIMAL(5,2) elsewhere.
var (
    maxMenuPrice   = decimal.RequireFromString("99.99")
    maxLedgerPrice = decimal.RequireFromString("999.99")
)

// validator collects the first failure of each field, in order.
type validator struct {
    errs []service.FieldError
    seen map[string]bool
}

func (v *validator) fail(field, msg string) {
    if v.seen == nil {
        v.seen = map[string]bool{}
    }
    if v.seen[field] {
        return
    }
    v.seen[field] = true
    v.errs = append(v.errs, service.FieldError{Field: field, Message: msg})
}

// merge adds the field errors of a service validation error.
func (v *validator) merge(err *service.ValidationError) {
    if err == nil {
        return
    }
    for _, fe := range err.Errors {
        v.fail(fe.Field, fe.Message)
    }
}

func (v *validator) failed(field string) bool { return v.seen[field] }

func (v *validator) err() error {
    if len(v.errs) == 0 {
        return nil
    }
    return &service.ValidationError{Errors: v.errs}
}

func isNull(raw json.RawMessage) bool {
    s := strings.TrimSpace(string(raw))
    return s == "" || s == "null"
}

// rawScalar returns a JSON string's content or a number's literal text.
func rawScalar(raw json.RawMessage) (string, bool) {
    s := strings.TrimSpace(string(raw))
    if s == "" || s == "null" {
        return "", false
    }
    if s[0] == '"' {
        var out string
        if err := json.Unmarshal(raw, &out); err != nil {
            return "", false
        }
        return strings.TrimSpace(out), true
    }
    if s[0] == '-' || (s[0] >= '0' && s[0] <= '9') {
        return s, true
    }
    return "", false
}

// parseID accepts a positive id as a JSON number or numeric string.
func parseID(raw json.RawMessage) (uint64, bool) {
    s, ok := rawScalar(raw)
    if !ok || !idRe.MatchString(s) {
        return 0, false
    }
    n, err := strconv.ParseUint(s, 10, 64)
    return n, err == nil
}

// parsePrice accepts a non-negative amount with at most two decimals, not
// above max.
func parsePrice(raw json.RawMessage, max decimal.Decimal) (decimal.Decimal, bool) {
    s, ok := rawScalar(raw)
    if !ok || !priceRe.MatchString(s) {
        return decimal.Zero, false
    }
    d, err := decimal.NewFromString(s)
    if err != nil || d.GreaterThan(max) {
        return decimal.Zero, false
    }
    return d, true
}

func parseBool(raw json.RawMessage) (bool, bool) {
    switch strings.TrimSpace(string(raw)) {
    case "true":
        return true, true
    case "false":
        return false, true
    }
    return false, false
}

// parseDateTime reads "YYYY-MM-DD HH:MM" as UTC.
func parseDateTime(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if !dateTimeRe.MatchString(s) {
        return time.Time{}, false
    }
    t, err := time.ParseInLocation(dateTimeLayout, s, time.UTC)
    return t, err == nil
}

func parseDate(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if !dateRe.MatchString(s) {
        return time.Time{}, false
    }
    t, err := time.ParseInLocation(dateLayout, s, time.UTC)
    return t, err == nil
}

func validEmail(s string) bool {
    if len(s) > 255 || strings.ContainsAny(s, " \t\r\n") {
        return false
    }
    a, err := mail.ParseAddress(s)
    return err == nil && a.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

// dateRange validates a start/end pair and requires start < end.
func dateRange(v *validator, start, end string) (time.Time, time.Time) {
    from, ok := parseDateTime(start)
    if !ok {
        v.fail("startDate", "Start date must use the format YYYY-MM-DD HH:MM")
    }
    to, ok2 := parseDateTime(end)
    if !ok2 {
        v.fail("endDate", "End date must use the format YYYY-MM-DD HH:MM")
    }
    if ok && ok2 && !from.Before(to) {
        v.fail("endDate", "End date must be after start date")
    }
    return from, to
}

// dayFilter reads ?date=YYYY-MM-DD or ?between=YYYY-MM-DD,YYYY-MM-DD into a
// half-open [from, to) window; both days of a range are included.
func dayFilter(c echo.Context, v *validator) (from, to *time.Time) {
    date := strings.TrimSpace(c.QueryParam("date"))
    between := strings.TrimSpace(c.QueryParam("between"))
    switch {
    case date != "" && between != "":
        v.fail("date", "Use either date or between, not both")
    case date != "":
        d, ok := parseDate(date)
        if !ok {
            v.fail("date", "Date must use the format YYYY-MM-DD")
            return nil, nil
        }
        end := d.AddDate(0, 0, 1)
        return &d, &end
    case between != "":
        parts := strings.Split(between, ",")
        if len(parts) != 2 {
            v.fail("between", "Between must use the format YYYY-MM-DD,YYYY-MM-DD")
            return nil, nil
        }
        a, ok := parseDate(parts[0])
        b, ok2 := parseDate(parts[1])
        if !ok || !ok2 {
            v.fail("between", "Between must use the format YYYY-MM-DD,YYYY-MM-DD")
            return nil, nil
        }
        if b.Before(a) {
            v.fail("between", "Start of range must not be after its end")
            return nil, nil
        }
        end := b.AddDate(0, 0, 1)
        return &a, &end
    }
    return nil, nil
}

// paging reads ?page and ?pageSize.  pageSize is optional; without it the
// whole result is one page.
func paging(c echo.Context, v *validator) (page, pageSize int) {
    page = 1
    if s := c.QueryParam("page"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 1 {
            v.fail("page", "Page must be a positive integer")
        } else {
            page = n
        }
    }
    if s := c.QueryParam("pageSize"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 1 || n > 100 {
            v.fail("pageSize", "Page size must be an integer between 1 and 100")
        } else {
            pageSize = n
        }
    }
    return page, pageSize
}

// pathID parses a positive :name path parameter.
func pathID(c echo.Context, v *validator, name string) uint64 {
    s := c.Param(name)
    if !idRe.MatchString(s) {
        v.fail(name, fmt.Sprintf("Invalid %s", name))
        return 0
    }
    n, _ := strconv.ParseUint(s, 10, 64)
    return n
}
