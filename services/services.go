package services

import (
	"github.com/AXI0MH1VE/State-Inverant/repositories"
)

// Services holds all service instances
type Services struct {
	Audit      AuditService
	Command    CommandService
	Docs       DocsService
	RequestLog repositories.RequestLogRepository
}

// NewServices creates and initializes all service instances
func NewServices(repos *repositories.Repositories, source AuditSource, submitter Submitter, opts CommandOptions) *Services {
	audit := NewAuditService(source)
	return &Services{
		Audit:      audit,
		Command:    NewCommandService(submitter, audit, opts),
		Docs:       NewDocsService(),
		RequestLog: repos.RequestLog,
	}
}
