// Command seed creates an admin account, or promotes an existing one.
//
//	go run ./cmd/seed -email admin@example.com -password secret123 -name "Store Admin" -phone 08030000000
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"commerce-service/internal/model"
	"commerce-service/internal/validation"
	"commerce-service/pkg/config"
	"commerce-service/pkg/database"
	"commerce-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	name := flag.String("name", os.Getenv("ADMIN_NAME"), "Display name of the admin")
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "Email of the admin")
	phone := flag.String("phone", os.Getenv("ADMIN_PHONE"), "Phone number of the admin")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Password for a new admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	defer log.Sync()

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	user, created, err := seedAdmin(context.Background(), db, validation.UserInput{
		Name:     *name,
		Email:    *email,
		Phone:    *phone,
		Password: *password,
	})
	if err != nil {
		log.Fatal("Failed to seed admin", zap.Error(err))
	}

	if created {
		log.Info("Admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	} else {
		log.Info("Existing user promoted to admin", zap.String("user_id", user.ID), zap.String("email", user.Email))
	}
}

// seedAdmin promotes the account with in.Email, or creates it when missing.
// Only the email is required to promote; creation validates every field.
func seedAdmin(ctx context.Context, db *gorm.DB, in validation.UserInput) (model.User, bool, error) {
	email, err := validation.Email(in.Email)
	if err != nil {
		return model.User{}, false, err
	}

	var user model.User
	err = db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if err := db.WithContext(ctx).Model(&user).Update("role", model.RoleAdmin).Error; err != nil {
			return model.User{}, false, fmt.Errorf("failed to promote user: %w", err)
		}
		user.Role = model.RoleAdmin
		return user, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return model.User{}, false, fmt.Errorf("failed to look up user: %w", err)
	}

	in.Role = string(model.RoleAdmin)
	newUser, err := validation.Registration(in, true)
	if err != nil {
		return model.User{}, false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newUser.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, false, fmt.Errorf("failed to hash password: %w", err)
	}

	user = model.User{
		Name:     newUser.Name,
		Phone:    newUser.Phone,
		Email:    newUser.Email,
		Password: string(hash),
		Role:     model.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return model.User{}, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, true, nil
}
