package entities

// GuildConfig is the per-guild configuration for ticketing. It is created
// lazily with defaults when a guild has no stored configuration.
type GuildConfig struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// AutoCloseEnabled is whether inactive tickets are closed automatically.
	AutoCloseEnabled bool `json:"auto_close_enabled" bson:"auto_close_enabled"`

	// AutoCloseHours is how many hours of inactivity close an open ticket.
	AutoCloseHours int `json:"auto_close_hours" bson:"auto_close_hours"`

	// NotificationsEnabled is whether warning/close notifications are posted
	// into ticket threads.
	NotificationsEnabled bool `json:"notifications_enabled" bson:"notifications_enabled"`

	// DefaultPriority is the priority assigned to new tickets when the
	// creator does not override it.
	DefaultPriority Priority `json:"default_priority" bson:"default_priority"`

	// AdminChannelID is the channel used as a fallback home for ticket
	// threads when category provisioning fails, and for operator
	// notifications.
	AdminChannelID string `json:"admin_channel_id,omitempty" bson:"admin_channel_id,omitempty"`

	// OpenMessageID is the ID of the open-ticket button message posted by
	// the setup command.
	OpenMessageID string `json:"open_message_id,omitempty" bson:"open_message_id,omitempty"`

	// OpenChannelID is the channel the open-ticket message was posted in.
	OpenChannelID string `json:"open_channel_id,omitempty" bson:"open_channel_id,omitempty"`
}

// DefaultGuildConfig returns the configuration used for guilds that have not
// been set up yet.
func DefaultGuildConfig(guildID string) *GuildConfig {
	return &GuildConfig{
		GuildID:              guildID,
		AutoCloseEnabled:     false,
		AutoCloseHours:       72,
		NotificationsEnabled: true,
		DefaultPriority:      PriorityNormal,
	}
}
