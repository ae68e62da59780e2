package model

// Client is an end user chatting with an enterprise's bot
type Client struct {
	Base
	Username string `json:"username" gorm:"type:varchar(100);index;not null"`
	Phone    string `json:"phone" gorm:"type:varchar(30);not null"`

	EnterpriseID string      `json:"-" gorm:"type:uuid;index;not null"`
	Enterprise   *Enterprise `json:"enterprise,omitempty" gorm:"foreignKey:EnterpriseID"`
}

// SetEnterprise attaches the owning tenant
func (c *Client) SetEnterprise(id string) {
	c.EnterpriseID = id
	c.Enterprise = nil
}

// UniqueFields lists the values checked against active rows before insert.
// username and phone form one declared group; each column is checked
// individually.
func (c *Client) UniqueFields() []FieldValue {
	return []FieldValue{
		{Column: "username", Value: c.Username},
		{Column: "phone", Value: c.Phone},
	}
}

// ClientDescriptor is the static capability table for Client
var ClientDescriptor = Descriptor{
	Name:          "client",
	HasEnterprise: true,
	UniqueColumns: []string{"username", "phone"},
	Filterable: map[string]FilterField{
		"username": {Column: "username"},
		"phone":    {Column: "phone"},
	},
	Sortable: map[string]string{
		"username":  "username",
		"phone":     "phone",
		"createdAt": "created_at",
	},
	Updatable: map[string]string{
		"username": "username",
		"phone":    "phone",
	},
}
