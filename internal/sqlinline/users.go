package sqlinline

const QInsertUser = `--sql a682ea53-ed7e-449a-957b-e1967a729886
insert into users (id, email, name, password_hash)
values (gen_random_uuid(), lower($1), $2, $3)
returning id, email, name, is_master_admin, is_suspended, created_at;
`

const QSelectUserByEmail = `--sql 97e4972c-4077-48ce-8310-8841017054c3
select id, email, name, password_hash, is_master_admin, is_suspended,
       coalesce(admin_notes, ''), last_login, coalesce(last_login_country, ''),
       created_at, updated_at
from users
where email = lower($1);
`

const QSelectUserByID = `--sql e13a4942-f70a-45cb-9d63-323955c7039f
select id, email, name, password_hash, is_master_admin, is_suspended,
       coalesce(admin_notes, ''), last_login, coalesce(last_login_country, ''),
       created_at, updated_at
from users
where id = $1;
`

const QRecordLogin = `--sql b0fc99f6-052e-42e7-857b-44a184269694
update users
set last_login = now(),
    last_login_country = nullif($2, ''),
    updated_at = now()
where id = $1;
`

const QSetUserSuspended = `--sql bc358ed9-37ad-4052-a5a9-8a2f61cf8e12
update users
set is_suspended = $2,
    updated_at = now()
where id = $1
returning id, email, name, is_master_admin, is_suspended, coalesce(admin_notes, ''),
          last_login, coalesce(last_login_country, ''), created_at, updated_at;
`

// Memberships reference users with on delete cascade; one statement removes both.
const QHardDeleteUser = `--sql b7f68167-f3e7-466e-ba17-17b224293fe3
delete from users
where id = $1;
`

const QSearchUsers = `--sql 4a2c7f9c-6cfb-43d8-86f3-9bc025e27913
select id, email, name, is_master_admin, is_suspended, coalesce(admin_notes, ''),
       last_login, coalesce(last_login_country, ''), created_at, updated_at
from users
where ($1 = '' or email ilike '%' || $1 || '%' or name ilike '%' || $1 || '%')
order by created_at desc
limit $2;
`

const QExportUsers = `--sql b6b933f5-5fab-47b3-8cab-511a2cabc51c
select id, email, name, is_master_admin, is_suspended,
       last_login, coalesce(last_login_country, ''), created_at
from users
order by created_at;
`
