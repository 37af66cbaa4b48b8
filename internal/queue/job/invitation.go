package job

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// CreateUser creates the identity-provider account for a membership.
type CreateUser struct {
	MembershipID string `json:"membership_id"`
}

func (*CreateUser) Type() string { return TypeCreateUser }

func (j *CreateUser) Perform(ctx context.Context, st *State, tx core.QueueTx) (*model.EnqueueJob, error) {
	m, err := st.Records.Membership(ctx, tx.SQL(), j.MembershipID)
	if err != nil {
		return nil, recordError("membership", j.MembershipID, err)
	}
	if err := validateEmail(m.UserEmail); err != nil {
		return nil, err
	}
	if st.Identity == nil {
		return nil, notConfigured("identity provider")
	}
	userID, err := st.Identity.CreateUser(ctx, m.UserEmail)
	if err != nil {
		return nil, clientError("create user", err)
	}
	st.Logger.InfoContext(ctx, "created identity user", "membership_id", m.ID, "user_id", userID)
	return Enqueue(&ResetPassword{MembershipID: m.ID, UserID: userID})
}

// validateEmail requires a local part and a domain under a registrable public suffix.
func validateEmail(email string) error {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return validationError("invalid email address %q", email)
	}
	domain := strings.TrimSuffix(strings.ToLower(email[at+1:]), ".")
	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return validationError("email domain %q is not registrable", domain)
	}
	// Unknown TLDs fall through to the "*" rule: not ICANN managed and a single label.
	if suffix, icann := publicsuffix.PublicSuffix(domain); !icann && !strings.Contains(suffix, ".") {
		return validationError("email domain %q has no known public suffix", domain)
	}
	return nil
}

// ResetPassword obtains the password-setup link for a freshly created user.
type ResetPassword struct {
	MembershipID string `json:"membership_id"`
	UserID       string `json:"user_id"`
}

func (*ResetPassword) Type() string { return TypeResetPassword }

func (j *ResetPassword) Perform(ctx context.Context, st *State, _ core.QueueTx) (*model.EnqueueJob, error) {
	if j.UserID == "" {
		return nil, validationError("user id is required")
	}
	if st.Identity == nil {
		return nil, notConfigured("identity provider")
	}
	ticket, err := st.Identity.PasswordResetTicket(ctx, j.UserID)
	if err != nil {
		return nil, clientError("password reset ticket", err)
	}
	return Enqueue(&SendInvitationEmail{
		MembershipID: j.MembershipID,
		ActionURL:    ticket,
		MessageID:    st.NewMessageID(),
	})
}

// SendInvitationEmail mails the invitation with the password-setup link.
type SendInvitationEmail struct {
	MembershipID string `json:"membership_id"`
	ActionURL    string `json:"action_url"`
	MessageID    string `json:"message_id"`
}

func (*SendInvitationEmail) Type() string { return TypeSendInvitationEmail }

func (j *SendInvitationEmail) Perform(ctx context.Context, st *State, tx core.QueueTx) (*model.EnqueueJob, error) {
	u, err := url.Parse(j.ActionURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, validationError("invalid action url %q", j.ActionURL)
	}
	m, err := st.Records.Membership(ctx, tx.SQL(), j.MembershipID)
	if err != nil {
		return nil, recordError("membership", j.MembershipID, err)
	}
	acct, err := st.Records.Account(ctx, tx.SQL(), m.AccountID)
	if err != nil {
		return nil, recordError("account", m.AccountID, err)
	}
	if st.Mailer == nil {
		return nil, notConfigured("mailer")
	}
	err = st.Mailer.SendTemplate(ctx, core.TemplateEmail{
		To:            m.UserEmail,
		TemplateAlias: st.InvitationTemplate,
		Model: map[string]any{
			"email":        m.UserEmail,
			"account_name": acct.Name,
			"action_url":   j.ActionURL,
		},
		MessageID: j.MessageID,
	})
	if err != nil {
		return nil, clientError("send invitation", err)
	}
	st.Logger.InfoContext(ctx, "sent invitation email", "membership_id", m.ID, "message_id", j.MessageID)
	return nil, nil
}
