package model

// Profile is an agent account inside an enterprise. Credentials, username and
// email are owned by the external identity provider under the same id; the
// local row only carries the enterprise link.
type Profile struct {
	Base
	EnterpriseID string      `json:"-" gorm:"type:uuid;index;not null"`
	Enterprise   *Enterprise `json:"enterprise,omitempty" gorm:"foreignKey:EnterpriseID"`
}

// SetEnterprise attaches the owning tenant
func (p *Profile) SetEnterprise(id string) {
	p.EnterpriseID = id
	p.Enterprise = nil
}

// ProfileDescriptor is the static capability table for Profile
var ProfileDescriptor = Descriptor{
	Name:          "profile",
	HasEnterprise: true,
	UniqueColumns: nil,
	Filterable:    map[string]FilterField{},
	Sortable: map[string]string{
		"createdAt": "created_at",
	},
	Updatable: map[string]string{},
}
