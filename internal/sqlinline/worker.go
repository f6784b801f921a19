package sqlinline

// Trial sweeps are guarded two ways. The not-exists predicate over all rows of
// the kind stops a re-enqueue after the notification was delivered (a sent row
// no longer matches the partial unique index, so the index alone cannot). The
// partial unique index on (organisation_id, kind) where sent_at is null stops
// concurrent sweeps from double-inserting a pending row.

const QEnqueueTrialReminders = `--sql 439eb835-3ff2-4b89-9c03-403f518b7ff3
insert into billing_notifications (id, organisation_id, kind, payload)
select gen_random_uuid(), o.id, 'TRIAL_EXPIRING_SOON',
       jsonb_build_object('trial_end', o.trial_end, 'plan', o.plan)
from organisations o
where o.stripe_subscription_id is null
  and o.cancelled_at is null
  and o.trial_end is not null
  and o.trial_end > now()
  and o.trial_end <= now() + make_interval(days => $1)
  and not exists (
      select 1
      from billing_notifications n
      where n.organisation_id = o.id
        and n.kind = 'TRIAL_EXPIRING_SOON'
  )
on conflict do nothing;
`

const QEnqueueTrialExpired = `--sql ab597db2-14ce-4418-b2f9-994c53799b4e
insert into billing_notifications (id, organisation_id, kind, payload)
select gen_random_uuid(), o.id, 'TRIAL_EXPIRED',
       jsonb_build_object('trial_end', o.trial_end, 'plan', o.plan)
from organisations o
where o.stripe_subscription_id is null
  and o.cancelled_at is null
  and o.trial_end is not null
  and o.trial_end < now()
  and not exists (
      select 1
      from billing_notifications n
      where n.organisation_id = o.id
        and n.kind = 'TRIAL_EXPIRED'
  )
on conflict do nothing;
`

const QSweepSeatOverages = `--sql 6001b07c-c40a-4e24-8aee-75392fb9d666
with live as (
    select o.id,
           greatest(
               (select count(*)
                from memberships m
                join users u on u.id = m.user_id
                where m.organisation_id = o.id
                  and not u.is_suspended) - o.included_seats,
               0
           ) as overage
    from organisations o
    where o.cancelled_at is null
)
update organisations o
set seat_overage_cached = live.overage,
    updated_at = now()
from live
where o.id = live.id
  and o.seat_overage_cached <> live.overage
returning o.id, live.overage;
`

const QEnqueueSeatOverage = `--sql c1e8b64c-d05f-49e1-8967-dd1b2cfc8d6b
insert into billing_notifications (id, organisation_id, kind, payload)
values (gen_random_uuid(), $1, 'SEAT_OVERAGE', jsonb_build_object('overage', $2::int))
on conflict do nothing;
`

// Claiming and completion are separate steps: claimed_at is a lease taken
// before dispatch, sent_at is recorded only after the message went out. A
// claim whose worker died is retried once the lease lapses.

const QClaimNotification = `--sql 1ecb74cc-3f4c-46b4-9701-8c9f0e2a793d
update billing_notifications
set claimed_at = now()
where id = (
    select id
    from billing_notifications
    where sent_at is null
      and (claimed_at is null or claimed_at < now() - interval '10 minutes')
    order by created_at
    limit 1
    for update skip locked
)
returning id, organisation_id, kind, payload, created_at;
`

const QMarkNotificationSent = `--sql d3560175-f0ee-45cb-9c76-9caa1be4c99b
update billing_notifications
set sent_at = now()
where id = $1;
`

const QNotificationOrgContact = `--sql 8420e038-aa42-4e1f-8311-087b1c9893a4
select o.name, u.email
from organisations o
join memberships m on m.organisation_id = o.id and m.role = 'owner'
join users u on u.id = m.user_id
where o.id = $1
limit 1;
`
