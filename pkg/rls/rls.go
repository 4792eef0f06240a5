package rls

import (
	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"gorm.io/gorm"
)

const (
	SettingCurrentUserID = "app.current_user_id"
	SettingPrivileged    = "app.privileged"
)

// WithActor scopes the row-level policies of the surrounding transaction to actorID.
// Superadmins are scoped as privileged. Other dialects have no policies and are left untouched.
func WithActor(tx *gorm.DB, actorID snowflake.ID, superadmin bool) error {
	if !db.IsPostgres(tx) {
		return nil
	}
	if err := setLocal(tx, SettingCurrentUserID, actorID.String()); err != nil {
		return err
	}
	if superadmin {
		return setLocal(tx, SettingPrivileged, "on")
	}
	return nil
}

// Privileged lifts the row-level policies for the surrounding transaction. Used by flows that
// must write rows before the owning identity has a profile.
func Privileged(tx *gorm.DB) error {
	if !db.IsPostgres(tx) {
		return nil
	}
	return setLocal(tx, SettingPrivileged, "on")
}

func setLocal(tx *gorm.DB, key, value string) error {
	return tx.Exec("SELECT set_config(?, ?, true)", key, value).Error
}
