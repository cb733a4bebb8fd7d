// Package jobboard is the core of the JobHive hiring platform: identity
// and token issuance, role and ownership authorization, and the
// soft-delete/ban lifecycle that keeps users, companies, jobs, and
// applications consistent.
//
// Authorization:
//   - CanAct is a pure decision function over an actor, an Action, and a
//     Resource. Rules are evaluated first match wins: admins may do
//     anything except ban themselves, inactive resources only accept
//     admin moderation, and mutations require ownership or HR membership
//     on the resource's company.
//
// Lifecycle:
//   - LifecycleManager runs every cascade inside a single transaction.
//     Deleting a company sweeps its live jobs and rejects their pending
//     applications; deleting a user detaches their companies and jobs
//     and rejects their applications. Bans only stamp banned_at: reads
//     gate on the ancestor chain, so nothing below needs rewriting and
//     unban restores visibility without reversal.
//
// Tokens:
//   - Access tokens live an hour, refresh tokens a week, signed with
//     separate secrets. Every user row carries change_credential_at;
//     tokens issued before it are rejected, so a password change or
//     reset revokes all outstanding sessions at once.
//
// Activity sinks:
//   - ActivitySink is a best-effort audit emitter used by the
//     authenticator, the OTP engine, and the lifecycle manager. Sink
//     errors are logged, never propagated, so auditing cannot block a
//     login or a cascade.
package jobboard
