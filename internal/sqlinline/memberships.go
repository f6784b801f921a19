package sqlinline

const QSelectPrimaryOrg = `--sql 28547901-8030-42d9-bc63-d85c4e270b02
select organisation_id
from memberships
where user_id = $1
order by created_at
limit 1;
`

const QCountActiveMembers = `--sql 5130b8f8-1e06-495f-8d7c-b2cc643be716
select count(*)
from memberships m
join users u on u.id = m.user_id
where m.organisation_id = $1
  and not u.is_suspended;
`
