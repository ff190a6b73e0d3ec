package database

import (
    "context"
    "database/sql"
    "fmt"
)

// schema lists the DDL statements in dependency order.  Soft-deletable
// tables carry a nullable deleted_at column; join tables are owned by their
// parent row and have no timestamps.
var schema = []string{
    `CREATE TABLE IF NOT EXISTS roles (
        id TINYINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        description ENUM('user','admin') NOT NULL UNIQUE
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS users (
        id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        first_name VARCHAR(255) NOT NULL,
        last_name VARCHAR(255) NOT NULL,
        email VARCHAR(255) NOT NULL UNIQUE,
        hashed_password CHAR(60) NOT NULL,
        avatar_reference TEXT NULL,
        role_id TINYINT UNSIGNED NOT NULL DEFAULT 1,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        CONSTRAINT fk_users_role FOREIGN KEY (role_id) REFERENCES roles(id)
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS refresh_tokens (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        user_id INT UNSIGNED NOT NULL,
        token_hash CHAR(64) NOT NULL UNIQUE,
        expires_at DATETIME NOT NULL,
        revoked_at DATETIME NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS courses (
        id TINYINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        name ENUM('starter','main','dessert') NOT NULL UNIQUE
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS discounts (
        id TINYINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        description VARCHAR(255) NOT NULL,
        percentage DECIMAL(3,2) NOT NULL,
        CONSTRAINT chk_discounts_percentage CHECK (percentage BETWEEN 0 AND 1)
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS dishes (
        id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        name VARCHAR(65) NOT NULL,
        course_id TINYINT UNSIGNED NOT NULL,
        is_a_la_carte BOOLEAN NOT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        deleted_at DATETIME NULL,
        CONSTRAINT fk_dishes_course FOREIGN KEY (course_id) REFERENCES courses(id)
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS menus (
        id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        start_date DATETIME NOT NULL,
        end_date DATETIME NOT NULL,
        price DECIMAL(4,2) NOT NULL,
        open_reservations TINYINT UNSIGNED NOT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        deleted_at DATETIME NULL,
        CONSTRAINT chk_menus_dates CHECK (start_date < end_date)
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS menu_dishes (
        menu_id INT UNSIGNED NOT NULL,
        dish_id INT UNSIGNED NOT NULL,
        dish_quantity INT UNSIGNED NOT NULL,
        PRIMARY KEY (menu_id, dish_id),
        CONSTRAINT fk_menu_dishes_menu FOREIGN KEY (menu_id) REFERENCES menus(id),
        CONSTRAINT fk_menu_dishes_dish FOREIGN KEY (dish_id) REFERENCES dishes(id),
        CONSTRAINT chk_menu_dishes_quantity CHECK (dish_quantity > 0)
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS reservation_statuses (
        id TINYINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        description ENUM('pending','approved','rejected','canceled','completed','non-attendance') NOT NULL UNIQUE
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS reservations (
        id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        start_date DATETIME NOT NULL,
        end_date DATETIME NOT NULL,
        reservation_price DECIMAL(5,2) NOT NULL,
        supplements_price DECIMAL(5,2) NULL,
        amount_received DECIMAL(5,2) NOT NULL DEFAULT 0,
        message TEXT NULL,
        is_table_communal BOOLEAN NOT NULL,
        status_id TINYINT UNSIGNED NOT NULL DEFAULT 1,
        menu_id INT UNSIGNED NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        deleted_at DATETIME NULL,
        CONSTRAINT fk_reservations_status FOREIGN KEY (status_id) REFERENCES reservation_statuses(id),
        CONSTRAINT fk_reservations_menu FOREIGN KEY (menu_id) REFERENCES menus(id)
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS participants (
        id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        reservation_id INT UNSIGNED NOT NULL,
        user_id INT UNSIGNED NULL,
        name VARCHAR(255) NULL,
        email VARCHAR(255) NULL,
        reservation_price DECIMAL(5,2) NOT NULL,
        amount_paid DECIMAL(5,2) NOT NULL DEFAULT 0,
        discount_id TINYINT UNSIGNED NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        deleted_at DATETIME NULL,
        CONSTRAINT fk_participants_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(id),
        CONSTRAINT fk_participants_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE RESTRICT,
        CONSTRAINT fk_participants_discount FOREIGN KEY (discount_id) REFERENCES discounts(id),
        CONSTRAINT chk_participants_identity CHECK (
            (user_id IS NOT NULL AND name IS NULL AND email IS NULL) OR
            (user_id IS NULL AND name IS NOT NULL AND email IS NOT NULL)
        )
    ) ENGINE=InnoDB`,

    `CREATE TABLE IF NOT EXISTS participant_dishes (
        id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        participant_id INT UNSIGNED NOT NULL,
        dish_id INT UNSIGNED NOT NULL,
        CONSTRAINT fk_participant_dishes_participant FOREIGN KEY (participant_id) REFERENCES participants(id),
        CONSTRAINT fk_participant_dishes_dish FOREIGN KEY (dish_id) REFERENCES dishes(id)
    ) ENGINE=InnoDB`,

    `CREATE INDEX idx_menus_start_date ON menus(start_date)`,
    `CREATE INDEX idx_reservations_start_date ON reservations(start_date)`,
    `CREATE INDEX idx_participants_reservation ON participants(reservation_id)`,
    `CREATE INDEX idx_participants_user ON participants(user_id)`,
    `CREATE INDEX idx_participant_dishes_participant ON participant_dishes(participant_id)`,
}

// Migrate creates every table that does not exist yet.  MySQL commits DDL
// implicitly, so statements are applied one by one; an index that already
// exists (error 1061) is not treated as a failure.
func Migrate(ctx context.Context, db *sql.DB) error {
    for i, stmt := range schema {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            if isDuplicateKeyName(err) {
                continue
            }
            return fmt.Errorf("migrate statement %d: %w", i, err)
        }
    }
    return nil
}
