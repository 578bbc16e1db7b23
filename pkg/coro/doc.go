// Package coro defines resumption tokens and the three-phase await contract
// (Ready, Suspend, Resume) shared by asynchronous operations, channels and events.
//
// A computation suspended on an awaiter is either a goroutine parked in Await,
// or a continuation registered with Then. Either way it is continued by exactly
// one Resume of its Token, possibly from another goroutine.
package coro
