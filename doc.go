// Package vcenter provides a client for the vSphere Automation REST API
// session service.
//
// The library is organized into layers:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  cis/             Session: login, status, logout        │
//	├─────────────────────────────────────────────────────────┤
//	│  rest/            URLs and the {"value": ...} envelope  │
//	├─────────────────────────────────────────────────────────┤
//	│  rest/auth        Basic and session-header auth         │
//	│  rest/transport   HTTPS transport, TLS trust mode       │
//	└─────────────────────────────────────────────────────────┘
//
// # Quick Start
//
//	s, err := cis.NewSession("vc01.example.com", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ok, err := s.Login(ctx, "administrator@vsphere.local", password)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !ok {
//	    log.Fatal("bad credentials")
//	}
//	defer s.Logout(ctx)
//
//	status, err := s.LoginStatus(ctx)
//
// A Session is not safe for concurrent use; guard it with a mutex or keep it
// owned by a single goroutine.
package vcenter
