package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"firepm/internal/database"
	"firepm/internal/domain/auth"
	"firepm/internal/domain/media"
	"firepm/internal/domain/project"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "firepm.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed: ", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&auth.User{},
		&project.Project{},
		&media.File{},
		&media.FileVersion{},
	); err != nil {
		log.Fatal("AutoMigrate failed: ", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM file_versions")
	db.Exec("DELETE FROM files")
	db.Exec("DELETE FROM projects")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := auth.User{
		Email:        "admin@firepm.local",
		PasswordHash: string(adminHash),
		Role:         auth.RoleAdmin,
		FullName:     "Site Administrator",
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatal("create admin: ", err)
	}

	staffHash, _ := bcrypt.GenerateFromPassword([]byte("staff123"), bcrypt.DefaultCost)
	staff := auth.User{
		Email:        "office@firepm.local",
		PasswordHash: string(staffHash),
		Role:         auth.RoleStaff,
		FullName:     "Office Manager",
		Phone:        "+15550100",
	}
	if err := db.Create(&staff).Error; err != nil {
		log.Fatal("create staff: ", err)
	}

	clientHash, _ := bcrypt.GenerateFromPassword([]byte("client123"), bcrypt.DefaultCost)
	client := auth.User{
		Email:        "owner@example.com",
		PasswordHash: string(clientHash),
		Role:         auth.RoleClient,
		FullName:     "Dana Whitfield",
		Phone:        "+15550101",
	}
	if err := db.Create(&client).Error; err != nil {
		log.Fatal("create client: ", err)
	}

	log.Println("Creating projects...")

	projects := []project.Project{
		{
			Name:     "Warehouse sprinkler retrofit",
			Address:  "12 Dock Rd",
			ClientID: &client.ID,
			Status:   project.StatusActive,
		},
		{
			Name:     "Clinic alarm upgrade",
			Address:  "4 Main St",
			ClientID: &client.ID,
			Status:   project.StatusLead,
		},
	}
	for i := range projects {
		if err := db.Create(&projects[i]).Error; err != nil {
			log.Fatal("create project: ", err)
		}
	}

	log.Printf("Seed complete: %d users, %d projects", 3, len(projects))
	log.Println("admin@firepm.local / admin123")
	log.Println("office@firepm.local / staff123")
	log.Println("owner@example.com / client123")
}
