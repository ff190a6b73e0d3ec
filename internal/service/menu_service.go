package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/restaurant-reservation/internal/database"
    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
)

// MenuInput is a complete menu definition.  Dates are validated by the
// caller; capacity and lines are validated here.
type MenuInput struct {
    StartDate        time.Time
    EndDate          time.Time
    Price            decimal.Decimal
    OpenReservations int
    Lines            []model.MenuLine
}

// MenuService composes menus.  Every multi-row write runs in one
// transaction, so a failing line leaves no menu behind.
type MenuService struct {
    db     *sql.DB
    menus  *repository.MenuRepo
    dishes *repository.DishRepo
}

func NewMenuService(db *sql.DB) *MenuService {
    return &MenuService{
        db:     db,
        menus:  repository.NewMenuRepo(db),
        dishes: repository.NewDishRepo(db),
    }
}

func validateMenu(in MenuInput) error {
    if in.OpenReservations <= 0 {
        return Invalid("openReservations", "Open reservations must be a positive integer")
    }
    seen := make(map[uint64]bool, len(in.Lines))
    for _, l := range in.Lines {
        if l.Quantity <= 0 {
            return Invalid("dishes", fmt.Sprintf("Invalid quantity for dish ID %d", l.DishID))
        }
        if seen[l.DishID] {
            return Invalid("dishes", fmt.Sprintf("Duplicate dish ID %d", l.DishID))
        }
        seen[l.DishID] = true
    }
    return nil
}

// checkDishes fails with a not-found error naming the first line whose
// dish is missing or deleted.
func checkDishes(ctx context.Context, dishes *repository.DishRepo, lines []model.MenuLine) error {
    ids := make([]uint64, len(lines))
    for i, l := range lines {
        ids[i] = l.DishID
    }
    found, err := dishes.ExistingIDs(ctx, ids)
    if err != nil {
        return err
    }
    for _, id := range ids {
        if !found[id] {
            return &repository.NotFoundError{Entity: "Dish", ID: id}
        }
    }
    return nil
}

// CreateMenu inserts the menu and all its lines, or nothing.
func (s *MenuService) CreateMenu(ctx context.Context, in MenuInput) (uint64, error) {
    if err := validateMenu(in); err != nil {
        return 0, err
    }
    m := model.Menu{StartDate: in.StartDate, EndDate: in.EndDate, Price: in.Price, OpenReservations: in.OpenReservations}
    err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
        menus := s.menus.WithTx(tx)
        if err := menus.Create(ctx, &m); err != nil {
            return fmt.Errorf("insert menu: %w", err)
        }
        if err := checkDishes(ctx, s.dishes.WithTx(tx), in.Lines); err != nil {
            return err
        }
        if err := menus.InsertLines(ctx, m.ID, in.Lines); err != nil {
            return fmt.Errorf("insert menu lines: %w", err)
        }
        return nil
    })
    if err != nil {
        return 0, err
    }
    return m.ID, nil
}

// ReplaceMenu overwrites the menu and swaps its whole line set: existing
// lines are cleared before the new ones are inserted.
func (s *MenuService) ReplaceMenu(ctx context.Context, id uint64, in MenuInput) error {
    if err := validateMenu(in); err != nil {
        return err
    }
    m := model.Menu{ID: id, StartDate: in.StartDate, EndDate: in.EndDate, Price: in.Price, OpenReservations: in.OpenReservations}
    return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
        menus := s.menus.WithTx(tx)
        if err := menus.Update(ctx, &m); err != nil {
            return err
        }
        if err := menus.ClearLines(ctx, id); err != nil {
            return fmt.Errorf("clear menu lines: %w", err)
        }
        if err := checkDishes(ctx, s.dishes.WithTx(tx), in.Lines); err != nil {
            return err
        }
        if err := menus.InsertLines(ctx, id, in.Lines); err != nil {
            return fmt.Errorf("insert menu lines: %w", err)
        }
        return nil
    })
}

// DecrementOpenReservations takes one slot.  Concurrent callers against a
// menu with K slots left see exactly K successes; the rest get a
// ConflictError.
func (s *MenuService) DecrementOpenReservations(ctx context.Context, id uint64) error {
    return capacityConflict(s.menus.DecrementOpenReservations(ctx, id), id)
}

// DeleteMenu soft-deletes the menu.
func (s *MenuService) DeleteMenu(ctx context.Context, id uint64) error {
    return s.menus.SoftDelete(ctx, id)
}

func capacityConflict(err error, menuID uint64) error {
    if err != nil && errors.Is(err, repository.ErrConflict) {
        return &ConflictError{Message: fmt.Sprintf("Menu with id %d has no open reservations left", menuID)}
    }
    return err
}
