package handler

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
    "github.com/iliyamo/restaurant-reservation/internal/service"
)

func TestParseParticipants(t *testing.T) {
    tests := []struct {
        name string
        body string
        want string
    }{
        {"not an array", `{}`, "Participants must be a non-empty array"},
        {"empty", `[]`, "Participants must be a non-empty array"},
        {"not an object", `[1]`, "Invalid participant at index 0"},
        {"both identities", `[{"userId":1,"name":"A","email":"a@b.co","reservationPrice":"1","dishesIds":[1]}]`,
            "Invalid participant at index 0. Provide either a user id or a name and email, not both"},
        {"bad user", `[{"userId":0,"reservationPrice":"1","dishesIds":[1]}]`, "Invalid participant at index 0. Invalid user id"},
        {"bad guest", `[{"userId":2,"reservationPrice":"1","dishesIds":[1]},{"name":"A","email":"nope","reservationPrice":"1","dishesIds":[1]}]`,
            "Invalid participant at index 1. Invalid name or email"},
        {"bad price", `[{"userId":2,"reservationPrice":"1.234","dishesIds":[1]}]`, "Invalid participant at index 0. Invalid reservation price"},
        {"no dishes", `[{"userId":2,"reservationPrice":"1"}]`, "Invalid participant at index 0. Missing dishes IDs array"},
        {"bad dish", `[{"userId":2,"reservationPrice":"1","dishesIds":[3,"x"]}]`, "Invalid participant at index 0. Invalid dish ID at index 1"},
        {"bad discount", `[{"userId":2,"reservationPrice":"1","discountId":-1,"dishesIds":[3]}]`, "Invalid participant at index 0. Invalid discount id"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            _, err := parseParticipants(json.RawMessage(tt.body))
            if err == nil || err.Errors[0].Message != tt.want {
                t.Fatalf("got %v, want %q", err, tt.want)
            }
            if err.Errors[0].Field != "participants" {
                t.Fatalf("field = %q", err.Errors[0].Field)
            }
        })
    }
}

func TestParseParticipantsAccepts(t *testing.T) {
    body := `[{"userId":"4","reservationPrice":12.5,"discountId":1,"dishesIds":[1,1,2]},
              {"name":" Bo ","email":"BO@Example.com","reservationPrice":"0","dishesIds":[3]}]`
    list, err := parseParticipants(json.RawMessage(body))
    if err != nil {
        t.Fatal(err)
    }
    if u, ok := list[0].Identity.(model.UserParticipant); !ok || u.UserID != 4 {
        t.Fatalf("identity 0 = %#v", list[0].Identity)
    }
    if len(list[0].DishIDs) != 3 || *list[0].DiscountID != 1 || list[0].ReservationPrice.String() != "12.5" {
        t.Fatalf("participant 0 = %+v", list[0])
    }
    g, ok := list[1].Identity.(model.GuestParticipant)
    if !ok || g.Name != "Bo" || g.Email != "bo@example.com" {
        t.Fatalf("identity 1 = %#v", list[1].Identity)
    }
}

func TestRespondError(t *testing.T) {
    tests := []struct {
        err  error
        code int
        body string
    }{
        {service.Invalid("name", "Name is required"), http.StatusUnprocessableEntity, `{"errors":[{"field":"name","message":"Name is required"}]}`},
        {fmt.Errorf("wrapped: %w", &repository.NotFoundError{Entity: "Dish", ID: 3}), http.StatusNotFound, `{"error":"Dish with id 3 not found"}`},
        {&service.ConflictError{Message: "Menu with id 2 has no open reservations left"}, http.StatusConflict, `{"error":"Menu with id 2 has no open reservations left"}`},
        {repository.ErrEmailExists, http.StatusConflict, `{"error":"Email already in use"}`},
        {repository.ErrForbidden, http.StatusForbidden, `{"error":"forbidden"}`},
        {errors.New("connection reset"), http.StatusInternalServerError, `{"error":"Something failed!"}`},
    }
    for _, tt := range tests {
        e := echo.New()
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
        if err := respondError(c, tt.err); err != nil {
            t.Fatal(err)
        }
        if rec.Code != tt.code || strings.TrimSpace(rec.Body.String()) != tt.body {
            t.Errorf("%v: got %d %s", tt.err, rec.Code, rec.Body.String())
        }
    }
}

func jsonRequest(method, target, body string) *http.Request {
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    return req
}

func TestCreateDishValidation(t *testing.T) {
    e := echo.New()
    h := NewDishHandler(nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(jsonRequest(http.MethodPost, "/dishes", `{"name":"","courseId":4,"isALaCarte":"yes"}`), rec)
    if err := h.Create(c); err != nil {
        t.Fatal(err)
    }
    if rec.Code != http.StatusUnprocessableEntity {
        t.Fatalf("code = %d", rec.Code)
    }
    var out struct {
        Errors []service.FieldError `json:"errors"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
        t.Fatal(err)
    }
    fields := []string{}
    for _, fe := range out.Errors {
        fields = append(fields, fe.Field)
    }
    if strings.Join(fields, ",") != "name,courseId,isALaCarte" {
        t.Fatalf("fields = %v", fields)
    }
}

func TestCreateReservationValidation(t *testing.T) {
    e := echo.New()
    h := NewReservationHandler(nil)
    body := `{"startDate":"2026-12-24 22:00","endDate":"2026-12-24 20:00","reservationPrice":"10",
              "isTableCommunal":false,"participants":[{"userId":1,"reservationPrice":"10","dishesIds":[]}]}`
    rec := httptest.NewRecorder()
    c := e.NewContext(jsonRequest(http.MethodPost, "/reservations", body), rec)
    if err := h.Create(c); err != nil {
        t.Fatal(err)
    }
    if rec.Code != http.StatusUnprocessableEntity {
        t.Fatalf("code = %d", rec.Code)
    }
    for _, want := range []string{"End date must be after start date", "Invalid participant at index 0. Missing dishes IDs array"} {
        if !strings.Contains(rec.Body.String(), want) {
            t.Errorf("body %s lacks %q", rec.Body.String(), want)
        }
    }
}

func TestReservationListForeignUserForbidden(t *testing.T) {
    e := echo.New()
    h := NewReservationHandler(nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/reservations?userId=9", nil), rec)
    c.Set(middleware.CtxUserID, uint64(3))
    c.Set(middleware.CtxRole, model.RoleUser)
    if err := h.List(c); err != nil {
        t.Fatal(err)
    }
    if rec.Code != http.StatusForbidden {
        t.Fatalf("code = %d", rec.Code)
    }
}

func TestDayFilterAndPaging(t *testing.T) {
    tests := []struct {
        query   string
        from    string
        to      string
        errName string
    }{
        {query: "date=2026-05-01", from: "2026-05-01", to: "2026-05-02"},
        {query: "between=2026-05-01,2026-05-03", from: "2026-05-01", to: "2026-05-04"},
        {query: "between=2026-05-03,2026-05-01", errName: "between"},
        {query: "date=2026-05-01&between=2026-05-01,2026-05-03", errName: "date"},
        {query: "date=01-05-2026", errName: "date"},
        {query: "pageSize=101", errName: "pageSize"},
    }
    for _, tt := range tests {
        t.Run(tt.query, func(t *testing.T) {
            e := echo.New()
            c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil), httptest.NewRecorder())
            var v validator
            from, to := dayFilter(c, &v)
            paging(c, &v)
            if tt.errName != "" {
                if !v.failed(tt.errName) {
                    t.Fatalf("expected %s to fail", tt.errName)
                }
                return
            }
            if v.err() != nil {
                t.Fatal(v.err())
            }
            if from.Format(dateLayout) != tt.from || to.Format(dateLayout) != tt.to {
                t.Fatalf("window = %v .. %v", from, to)
            }
        })
    }
}

func TestParsePrice(t *testing.T) {
    tests := []struct {
        raw string
        ok  bool
    }{
        {`"12.50"`, true}, {`12.5`, true}, {`0`, true}, {`"999.99"`, true},
        {`"1000"`, false}, {`-1`, false}, {`"1.234"`, false}, {`"abc"`, false}, {`null`, false}, {`true`, false},
    }
    for _, tt := range tests {
        if _, ok := parsePrice(json.RawMessage(tt.raw), maxLedgerPrice); ok != tt.ok {
            t.Errorf("parsePrice(%s) ok = %v", tt.raw, ok)
        }
    }
}
