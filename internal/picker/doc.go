// Package picker lists the selectable resources behind each service:
// calendars for the calendar service, Drive folders for the drive
// service, and a fixed mailbox set for email.
package picker
