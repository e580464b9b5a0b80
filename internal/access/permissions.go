package access

// Permission names.
const (
	PermViewUsers   = "view_users"
	PermCreateUsers = "create_users"
	PermEditUsers   = "edit_users"
	PermDeleteUsers = "delete_users"
	PermManageRoles = "manage_roles"

	PermViewAnnouncements    = "view_announcements"
	PermCreateAnnouncements  = "create_announcements"
	PermEditAnnouncements    = "edit_announcements"
	PermDeleteAnnouncements  = "delete_announcements"
	PermPublishAnnouncements = "publish_announcements"

	PermViewEvents            = "view_events"
	PermCreateEvents          = "create_events"
	PermEditEvents            = "edit_events"
	PermDeleteEvents          = "delete_events"
	PermManageEventAttendance = "manage_event_attendance"

	PermSendMessages        = "send_messages"
	PermViewMessages        = "view_messages"
	PermManageMessageGroups = "manage_message_groups"

	PermViewContributions   = "view_contributions"
	PermCreateContributions = "create_contributions"
	PermEditContributions   = "edit_contributions"
	PermViewDonations       = "view_donations"
	PermCreateDonations     = "create_donations"
	PermEditDonations       = "edit_donations"
	PermViewFinancialReport = "view_financial_reports"

	PermViewMinistries        = "view_ministries"
	PermCreateMinistries      = "create_ministries"
	PermEditMinistries        = "edit_ministries"
	PermManageMinistryMembers = "manage_ministry_members"
)

// AllPermissions lists the seeded permission catalogue in display order.
var AllPermissions = []string{
	PermViewUsers, PermCreateUsers, PermEditUsers, PermDeleteUsers, PermManageRoles,
	PermViewAnnouncements, PermCreateAnnouncements, PermEditAnnouncements, PermDeleteAnnouncements, PermPublishAnnouncements,
	PermViewEvents, PermCreateEvents, PermEditEvents, PermDeleteEvents, PermManageEventAttendance,
	PermSendMessages, PermViewMessages, PermManageMessageGroups,
	PermViewContributions, PermCreateContributions, PermEditContributions,
	PermViewDonations, PermCreateDonations, PermEditDonations, PermViewFinancialReport,
	PermViewMinistries, PermCreateMinistries, PermEditMinistries, PermManageMinistryMembers,
}

// DefaultRolePermissions is the role to permission map applied by the seeder.
// Administrators receive every permission.
var DefaultRolePermissions = map[string][]string{
	RoleMember: {
		PermViewAnnouncements, PermViewEvents, PermSendMessages, PermViewMessages, PermViewMinistries,
	},
	RolePastor: {
		PermViewUsers, PermEditUsers,
		PermViewAnnouncements, PermCreateAnnouncements, PermEditAnnouncements, PermDeleteAnnouncements, PermPublishAnnouncements,
		PermViewEvents, PermCreateEvents, PermEditEvents, PermDeleteEvents, PermManageEventAttendance,
		PermSendMessages, PermViewMessages, PermManageMessageGroups,
		PermViewContributions, PermViewDonations, PermViewFinancialReport,
		PermViewMinistries, PermCreateMinistries, PermEditMinistries, PermManageMinistryMembers,
	},
	RoleFinanceCommittee: {
		PermViewUsers,
		PermViewAnnouncements, PermCreateAnnouncements,
		PermViewEvents,
		PermSendMessages, PermViewMessages,
		PermViewContributions, PermCreateContributions, PermEditContributions,
		PermViewDonations, PermCreateDonations, PermEditDonations, PermViewFinancialReport,
		PermViewMinistries,
	},
	RoleAdministrator: AllPermissions,
}

// RoleDisplayNames maps role names to their human readable label.
var RoleDisplayNames = map[string]string{
	RoleMember:           "Member",
	RolePastor:           "Pastor",
	RoleFinanceCommittee: "Finance Committee",
	RoleAdministrator:    "Administrator",
}
