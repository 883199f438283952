package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreateLinkMessage]     = (*CreateLinkCommand)(nil)
	_ gocmd.Commander[SetLinkActiveMessage]  = (*SetLinkActiveCommand)(nil)
	_ gocmd.Commander[SoftDeleteLinkMessage] = (*SoftDeleteLinkCommand)(nil)
	_ gocmd.Commander[RecordClickMessage]    = (*RecordClickCommand)(nil)
)
