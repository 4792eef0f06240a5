package migration

import (
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	financialdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/domain"
	invitationdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/domain"
	offerdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer/domain"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	projectdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	"gorm.io/gorm"
)

// Models lists every table for dialects without SQL migrations.
func Models() []any {
	return []any{
		&authdomain.Identity{},
		&authdomain.Session{},
		&invitationdomain.Invitation{},
		&profiledomain.Profile{},
		&projectdomain.Category{},
		&projectdomain.Project{},
		&offerdomain.Offer{},
		&financialdomain.Financial{},
		&financialdomain.Update{},
		&auditdomain.AuditLog{},
	}
}

// AutoMigrate creates the schema from the models. The single-accepted-offer
// rule is enforced by the offer service on these dialects.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}
