package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/connectwave/portal/app/repository"
)

// HandleListLocations returns the active service locations for the signup
// form's location picker.
func HandleListLocations(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetLocationRepository()
	locations, err := repo.GetActive()
	if err != nil {
		log.Errorf("location listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "listing_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"locations": locations})
}
