package model

import "github.com/shopspring/decimal"

// Course ids are seeded with fixed values.
const (
    CourseStarter uint8 = 1
    CourseMain    uint8 = 2
    CourseDessert uint8 = 3
)

// Course is one row of the `courses` reference table.
type Course struct {
    ID   uint8  `json:"id"`   // courses.id
    Name string `json:"name"` // starter | main | dessert
}

// Discount is a reduction that can be attached to a participant.
// Percentage is a fraction in [0,1], e.g. 0.20.
type Discount struct {
    ID          uint8           `json:"id"`
    Description string          `json:"description"`
    Percentage  decimal.Decimal `json:"percentage"`
}

// Dish mirrors the `dishes` table joined with its course.
type Dish struct {
    ID         uint64 `json:"id"`
    Name       string `json:"name"`
    CourseID   uint8  `json:"-"` // dishes.course_id, exposed through Course
    Course     Course `json:"course"`
    IsALaCarte bool   `json:"isALaCarte"`
}

// Page is the envelope returned by every paginated list endpoint.
type Page[T any] struct {
    Rows       []T `json:"rows"`
    TotalPages int `json:"totalPages"`
}

// TotalPages returns ceil(total/pageSize), or 1 when no page size is given.
func TotalPages(total int64, pageSize int) int {
    if pageSize <= 0 {
        return 1
    }
    n := int((total + int64(pageSize) - 1) / int64(pageSize))
    if n < 1 {
        return 1
    }
    return n
}
