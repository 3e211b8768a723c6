// Command seed loads demo catalog data: three offices, a handful of users in
// every role and published checklist templates. It is idempotent in the
// simplest way possible: if any office exists, it does nothing.
package main

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/checkflow/internal/config"
	"github.com/example/checkflow/internal/db"
	"github.com/example/checkflow/internal/models"
)

func main() {
	cfg := config.Load()

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	if err := database.AutoMigrate(
		&models.User{},
		&models.Office{},
		&models.ChecklistTemplate{},
		&models.TemplateVersion{},
		&models.PrintJob{},
		&models.Scan{},
		&models.RecognitionResult{},
		&models.HistoryEvent{},
	); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var count int64
	if err := database.Model(&models.Office{}).Count(&count).Error; err != nil {
		log.Fatalf("count offices: %v", err)
	}
	if count > 0 {
		log.Println("offices already present, skipping seed")
		return
	}

	if err := database.Transaction(seed); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Println("demo data seeded")
}

func seed(tx *gorm.DB) error {
	adminID := uuid.New()

	opening := template(adminID, "Morning opening", models.ChecklistTypeOpening,
		"Run through before the office opens to visitors",
		section("Premises", "Entrance and signage clean", "Lights and climate control on", "Meeting rooms reset"),
		section("Workstations", "Front desk PC started", "Card terminal online", "Cash drawer counted"),
	)
	closing := template(adminID, "Evening closing", models.ChecklistTypeClosing,
		"Run through after the last visitor leaves",
		section("Security", "Windows closed and locked", "Safe locked", "Alarm armed"),
		section("Premises", "Equipment powered down", "Waste bins emptied"),
	)
	weekly := template(adminID, "Weekly maintenance", models.ChecklistTypeWeekly,
		"Deeper checks done once a week",
		section("Equipment", "Printer supplies restocked", "Scanner glass cleaned", "Backup drive rotated"),
	)
	for _, t := range []*models.ChecklistTemplate{opening, closing, weekly} {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
	}
	templateIDs := []uuid.UUID{opening.ID, closing.ID, weekly.ID}

	cityManagerID := uuid.New()
	southManagerID := uuid.New()
	offices := []*models.Office{
		{ID: uuid.New(), Name: "Central", Code: "CTR", Address: "12 Market Square", IsActive: true,
			ManagerIDs: []uuid.UUID{cityManagerID}, TemplateIDs: templateIDs},
		{ID: uuid.New(), Name: "North", Code: "NRT", Address: "4 Harbor Road", IsActive: true,
			ManagerIDs: []uuid.UUID{cityManagerID}, TemplateIDs: templateIDs},
		{ID: uuid.New(), Name: "South", Code: "STH", Address: "89 Linden Avenue", IsActive: false,
			ManagerIDs: []uuid.UUID{southManagerID}, TemplateIDs: templateIDs},
	}
	for _, o := range offices {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
	}

	users := []*models.User{
		{ID: adminID, Name: "Alice Grant", Email: "alice@checkflow.local", Role: models.RoleAdmin},
		{ID: cityManagerID, Name: "Boris Malev", Email: "boris@checkflow.local", Role: models.RoleManager,
			OfficeIDs: []uuid.UUID{offices[0].ID, offices[1].ID}},
		{ID: southManagerID, Name: "Clara Osei", Email: "clara@checkflow.local", Role: models.RoleManager,
			OfficeIDs: []uuid.UUID{offices[2].ID}},
		{ID: uuid.New(), Name: "Daniil Petrov", Email: "daniil@checkflow.local", Role: models.RoleEmployee,
			OfficeIDs: []uuid.UUID{offices[0].ID}},
		{ID: uuid.New(), Name: "Emma Lindqvist", Email: "emma@checkflow.local", Role: models.RoleEmployee,
			OfficeIDs: []uuid.UUID{offices[1].ID}},
	}
	for _, u := range users {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		log.Printf("user %-14s %-8s %s", u.Name, u.Role, u.ID)
	}
	return nil
}

func template(authorID uuid.UUID, name string, kind models.ChecklistType, description string, sections ...models.ChecklistSection) *models.ChecklistTemplate {
	for i := range sections {
		sections[i].Order = i + 1
	}
	tmpl := &models.ChecklistTemplate{
		ID:          uuid.New(),
		Name:        name,
		Type:        kind,
		Description: description,
		Status:      models.TemplateStatusPublished,
	}
	version := models.TemplateVersion{
		ID:            uuid.New(),
		TemplateID:    tmpl.ID,
		VersionNumber: 1,
		Status:        models.TemplateStatusPublished,
		Sections:      sections,
		CreatedBy:     authorID,
	}
	tmpl.Versions = []models.TemplateVersion{version}
	tmpl.CurrentVersionID = &version.ID
	return tmpl
}

func section(title string, items ...string) models.ChecklistSection {
	s := models.ChecklistSection{ID: uuid.New(), Title: title}
	for i, text := range items {
		s.Items = append(s.Items, models.ChecklistItem{
			ID:         uuid.New(),
			Text:       text,
			IsRequired: true,
			Order:      i + 1,
		})
	}
	return s
}
