package models

type AgentStatus string

const (
	AgentAvailable AgentStatus = "available"
	AgentBusy      AgentStatus = "busy"
	AgentOffline   AgentStatus = "offline"
)

func (s AgentStatus) Valid() bool {
	return s == AgentAvailable || s == AgentBusy || s == AgentOffline
}

type DeliveryAgent struct {
	ID      string      `gorm:"primaryKey;type:varchar(16)" json:"id"`
	Name    string      `gorm:"type:varchar(200);not null" json:"name"`
	Status  AgentStatus `gorm:"type:varchar(20);not null" json:"status"`
	Vehicle string      `gorm:"type:varchar(50)" json:"vehicle"`
	Rating  float64     `json:"rating"`
}

func (DeliveryAgent) TableName() string {
	return "delivery_agents"
}
