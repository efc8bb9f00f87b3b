package bootstrap

import (
	"log"

	"anoa.com/feedsync/internal/entity"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Profile{},
		&entity.Group{},
		&entity.GroupMember{},
		&entity.GroupInvite{},
		&entity.Post{},
		&entity.Like{},
		&entity.Comment{},
		&entity.Mention{},
		&entity.Notification{},
	)
}

// SeedDemo creates two profiles and a public lobby group they both belong
// to. It only runs against an empty profiles table.
func SeedDemo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.Profile{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Profiles already exist, skipping demo seed")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		alice := entity.Profile{Username: "alice", FullName: stringPtr("Alice Demo")}
		bob := entity.Profile{Username: "bob", FullName: stringPtr("Bob Demo")}
		if err := tx.Create(&alice).Error; err != nil {
			return err
		}
		if err := tx.Create(&bob).Error; err != nil {
			return err
		}

		lobby := entity.Group{Title: "Lobby", Description: stringPtr("Everyone starts here.")}
		if err := tx.Create(&lobby).Error; err != nil {
			return err
		}

		members := []entity.GroupMember{
			{GroupID: lobby.ID, UserID: alice.ID, Role: entity.RoleOwner},
			{GroupID: lobby.ID, UserID: bob.ID, Role: entity.RoleMember},
		}
		if err := tx.Create(&members).Error; err != nil {
			return err
		}

		log.Printf("✅ Demo data seeded: alice=%s bob=%s lobby=%s", alice.ID, bob.ID, lobby.ID)
		return nil
	})
}

func stringPtr(s string) *string {
	return &s
}
