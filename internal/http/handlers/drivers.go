package handlers

import (
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hoslog/internal/model"
)

// CreateDriver registers a driver so the logbook endpoints can resolve the
// username. Driver management beyond creation (companies, vehicles,
// terminals) lives in the surrounding system, not here.
func CreateDriver(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		username := string(ctx.PostArgs().Peek("username"))
		password := string(ctx.PostArgs().Peek("password"))
		firstName := string(ctx.PostArgs().Peek("first_name"))
		lastName := string(ctx.PostArgs().Peek("last_name"))

		if username == "" || password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "username and password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		driver := &model.Driver{
			Username:     username,
			PasswordHash: string(hash),
			FirstName:    firstName,
			LastName:     lastName,
			Status:       "active",
		}

		if err := db.Create(driver).Error; err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "failed to create driver (username may already exist)")
			return
		}

		ctx.SetStatusCode(fasthttp.StatusCreated)
		jsonResponse(ctx, map[string]any{"id": driver.ID, "username": driver.Username})
	}
}
