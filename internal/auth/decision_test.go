package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticketing-api/internal/domain"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

func int64Ptr(v int64) *int64 { return &v }

var (
	owner    = &domain.User{ID: 1, Username: "owner"}
	assignee = &domain.User{ID: 2, Username: "helper"}
	stranger = &domain.User{ID: 3, Username: "stranger"}
	admin    = &domain.User{ID: 4, Username: "admin", IsAdmin: true}
)

func TestAuthenticate(t *testing.T) {
	d := Authenticate(nil)
	assert.Equal(t, DenyUnauthenticated, d.Outcome)
	assert.True(t, apperrors.HasCode(d.Err(), apperrors.CodeUnauthenticated))

	assert.True(t, Authenticate(owner).Allowed())
	assert.NoError(t, Authenticate(owner).Err())
}

func TestRequireAdmin(t *testing.T) {
	assert.Equal(t, DenyUnauthenticated, RequireAdmin(nil).Outcome)

	d := RequireAdmin(owner)
	assert.Equal(t, DenyForbidden, d.Outcome)
	assert.Equal(t, MsgAdminRequired, d.Reason)

	assert.True(t, RequireAdmin(admin).Allowed())
}

func TestAuthorizeTicket(t *testing.T) {
	ticket := &domain.Ticket{ID: 10, UserID: owner.ID, AssignedTo: int64Ptr(assignee.ID)}

	cases := []struct {
		name   string
		actor  *domain.User
		action Action
		want   Outcome
		reason string
	}{
		{"anonymous read", nil, ActionRead, DenyUnauthenticated, MsgAuthenticationRequired},
		{"owner read", owner, ActionRead, Allow, ""},
		{"owner update", owner, ActionUpdate, Allow, ""},
		{"owner delete", owner, ActionDelete, DenyForbidden, MsgAdminRequiredToDelete},
		{"assignee read", assignee, ActionRead, Allow, ""},
		{"assignee update", assignee, ActionUpdate, Allow, ""},
		{"stranger read", stranger, ActionRead, DenyForbidden, MsgAccessDenied},
		{"stranger update", stranger, ActionUpdate, DenyForbidden, MsgAccessDenied},
		{"stranger delete", stranger, ActionDelete, DenyForbidden, MsgAdminRequiredToDelete},
		{"admin delete", admin, ActionDelete, Allow, ""},
		{"admin read", admin, ActionRead, Allow, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := AuthorizeTicket(tc.actor, ticket, tc.action)
			assert.Equal(t, tc.want, d.Outcome)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestAuthorizeUserRecord(t *testing.T) {
	assert.Equal(t, DenyUnauthenticated, AuthorizeUserRecord(nil, 1).Outcome)
	assert.True(t, AuthorizeUserRecord(owner, owner.ID).Allowed())

	d := AuthorizeUserRecord(admin, owner.ID)
	assert.Equal(t, DenyForbidden, d.Outcome, "admins get no elevation on user records")
	assert.Equal(t, MsgAccessDenied, d.Reason)

	// The target does not have to exist.
	assert.Equal(t, DenyForbidden, AuthorizeUserRecord(owner, 9999).Outcome)
}

func TestRestrictTicketPatch(t *testing.T) {
	title := "new"
	status := domain.TicketStatusClosed
	patch := domain.TicketPatch{
		Title:      &title,
		Status:     &status,
		AssignedTo: domain.AssigneeChange{Set: true, UserID: int64Ptr(admin.ID)},
	}

	restricted := RestrictTicketPatch(owner, patch)
	require.NotNil(t, restricted.Title)
	assert.Nil(t, restricted.Status)
	assert.False(t, restricted.AssignedTo.Set)

	kept := RestrictTicketPatch(admin, patch)
	assert.Equal(t, patch, kept)
}

func TestDecisionErrStatus(t *testing.T) {
	de := apperrors.ToDomainError(forbidden(MsgAccessDenied).Err())
	assert.Equal(t, 403, de.HTTPStatus)
	assert.Equal(t, MsgAccessDenied, de.Message)

	de = apperrors.ToDomainError(unauthenticated().Err())
	assert.Equal(t, 401, de.HTTPStatus)
	assert.Equal(t, MsgAuthenticationRequired, de.Message)
}
