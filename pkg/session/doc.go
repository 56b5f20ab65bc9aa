/*
Package session serialises access to call sessions.

A call's turns must never run concurrently. Manager guards every operation on a
session id with a reference-counted in-process mutex and, when configured, a
distributed lock so several engine replicas can share one session store.
*/
package session
