package compute

import "fmt"

// Kernel sources. Constants are injected from Params so the GLSL and the CPU
// backend can never disagree. Both kernels run three modes per frame,
// selected by the sim uniform block: 0 = clear grid, 1 = insert, 2 = step.

const npcShaderTemplate = `#version 430

layout(local_size_x = %[1]d, local_size_y = 1, local_size_z = 1) in;

const int   GRID_W        = %[2]d;
const int   GRID_H        = %[3]d;
const float CELL_SIZE     = %[4]f;
const int   MAX_PER_CELL  = %[5]d;
const float SEP_RADIUS    = %[6]f;
const float SEP_STRENGTH  = %[7]f;
const float ARRIVAL_THRESHOLD = %[8]f;
const int   BACKOFF_MAX   = %[9]d;
const int   BACKOFF_DECAY = %[10]d;
const float LATERAL_STEER = %[11]f;
const float COMBAT_RANGE  = %[12]f;
const float PROJ_DODGE_RANGE = %[13]f;
const float PROJ_DODGE_ALIGN = %[14]f;
const float STATIONARY_PUSH  = %[15]f;
const float SAME_FACTION     = %[16]f;
const float MOVER_VS_SETTLED = %[17]f;
const float SETTLED_SHOVED   = %[18]f;
const float DODGE_OVERTAKE   = %[19]f;
const float DODGE_CROSS      = %[20]f;
const float DODGE_HEAD_ON    = %[21]f;
const float DODGE_CAP        = %[22]f;
const float AVOID_CAP        = %[23]f;

const float TOMBSTONE = -9000.0;
const float GOLDEN_ANGLE = 2.39996323;

layout(std430, binding = 0)  buffer PosBuf      { vec2 pos[]; };
layout(std430, binding = 1)  readonly buffer GoalBuf  { vec2 goal[]; };
layout(std430, binding = 2)  readonly buffer SpeedBuf { float speed[]; };
layout(std430, binding = 3)  readonly buffer HealthBuf { float health[]; };
layout(std430, binding = 4)  readonly buffer FactionBuf { int faction[]; };
layout(std430, binding = 5)  buffer MoveStateBuf { ivec2 moveState[]; }; // x=arrived y=backoff
layout(std430, binding = 6)  buffer TargetBuf    { int target[]; };
layout(std430, binding = 7)  buffer NpcGridCountBuf { uint npcCount[]; };
layout(std430, binding = 8)  buffer NpcGridDataBuf  { int npcData[]; };
layout(std430, binding = 9)  readonly buffer ProjGridCountBuf { uint projCount[]; };
layout(std430, binding = 10) readonly buffer ProjGridDataBuf  { int projData[]; };
layout(std430, binding = 11) readonly buffer ProjPosBuf  { vec2 projPos[]; };
layout(std430, binding = 12) readonly buffer ProjVelBuf  { vec2 projVel[]; };
layout(std430, binding = 13) readonly buffer ProjMetaBuf { ivec2 projMeta[]; }; // x=faction y=active
layout(std430, binding = 14) readonly buffer SimBuf {
	uint mode;
	uint npcN;
	uint projN;
	float dt;
};
layout(std430, binding = 15) buffer DropBuf { uint npcDrops; uint projDrops; };

bool hostile(int a, int b) {
	if (a < 0 || b < 0) { return false; }
	return a != b;
}

int cellIndex(vec2 p) {
	int cx = clamp(int(p.x / CELL_SIZE), 0, GRID_W - 1);
	int cy = clamp(int(p.y / CELL_SIZE), 0, GRID_H - 1);
	return cy * GRID_W + cx;
}

bool npcMoving(uint j) {
	if (speed[j] <= 0.0 || moveState[j].x != 0) { return false; }
	vec2 d = goal[j] - pos[j];
	return dot(d, d) > ARRIVAL_THRESHOLD * ARRIVAL_THRESHOLD;
}

vec2 npcHeading(uint j) {
	vec2 d = goal[j] - pos[j];
	float l = length(d);
	return l < 1e-5 ? vec2(0.0) : d / l;
}

void clearCell(uint i) {
	if (i < uint(GRID_W * GRID_H)) {
		npcCount[i] = 0u;
	}
}

void insert(uint i) {
	if (i >= npcN) { return; }
	vec2 p = pos[i];
	if (p.x < TOMBSTONE) { return; }
	int cell = cellIndex(p);
	uint idx = atomicAdd(npcCount[cell], 1u);
	if (idx < uint(MAX_PER_CELL)) {
		npcData[cell * MAX_PER_CELL + int(idx)] = int(i);
	} else {
		atomicAdd(npcDrops, 1u);
	}
}

void simulate(uint i) {
	if (i >= npcN) { return; }
	vec2 p = pos[i];
	if (p.x < TOMBSTONE) { return; }

	vec2 g = goal[i];
	float spd = speed[i];
	vec2 dv = g - p;
	float dlen = length(dv);
	bool moving = spd > 0.0 && dlen > ARRIVAL_THRESHOLD;
	vec2 heading = dlen > 1e-5 ? dv / dlen : vec2(0.0);

	vec2 sep = vec2(0.0);
	vec2 dodge = vec2(0.0);

	int cx = clamp(int(p.x / CELL_SIZE), 0, GRID_W - 1);
	int cy = clamp(int(p.y / CELL_SIZE), 0, GRID_H - 1);
	for (int dy = -1; dy <= 1; dy++) {
		for (int dx = -1; dx <= 1; dx++) {
			int gx = cx + dx;
			int gy = cy + dy;
			if (gx < 0 || gx >= GRID_W || gy < 0 || gy >= GRID_H) { continue; }
			int cell = gy * GRID_W + gx;
			uint n = min(npcCount[cell], uint(MAX_PER_CELL));
			for (uint s = 0u; s < n; s++) {
				int j = npcData[cell * MAX_PER_CELL + int(s)];
				if (j == int(i)) { continue; }
				vec2 o = pos[j] - p;
				float d2 = dot(o, o);
				if (d2 < 1e-4) {
					float angle = GOLDEN_ANGLE * float(int(i) + j * 31);
					sep += vec2(cos(angle), sin(angle)) * SEP_STRENGTH;
					continue;
				}
				float d = sqrt(d2);
				bool otherMoving = npcMoving(uint(j));
				if (d < SEP_RADIUS) {
					float strength = (SEP_RADIUS - d) / d * SEP_STRENGTH;
					float mult = 1.0;
					if (!otherMoving && moving) { mult *= STATIONARY_PUSH; }
					if (faction[j] == faction[i]) { mult *= SAME_FACTION; }
					if (moving && moveState[j].x != 0) { mult *= MOVER_VS_SETTLED; }
					if (!moving && otherMoving) { mult *= SETTLED_SHOVED; }
					sep -= o / d * strength * mult;
				}
				if (moving) {
					vec2 toOther = o / d;
					if (dot(heading, toOther) > 0.3) {
						float align = dot(heading, npcHeading(uint(j)));
						float mag = align > 0.5 ? DODGE_OVERTAKE
							: (align < -0.5 ? DODGE_HEAD_ON : DODGE_CROSS);
						float sgn = int(i) < j ? 1.0 : -1.0;
						dodge += vec2(-heading.y, heading.x) * sgn * mag;
					}
				}
			}
		}
	}

	float dl = length(dodge);
	if (dl > 1e-5) {
		dodge *= DODGE_CAP * SEP_STRENGTH / dl;
	}
	vec2 avoid = sep + dodge;
	float limit = AVOID_CAP * spd;
	if (limit > 0.0) {
		float al = length(avoid);
		if (al > limit) { avoid *= limit / al; }
	} else {
		avoid = vec2(0.0);
	}

	// Incoming-arrow dodge from the projectile grid.
	vec2 pdodge = vec2(0.0);
	if (spd > 0.0) {
		for (int dy = -1; dy <= 1; dy++) {
			for (int dx = -1; dx <= 1; dx++) {
				int gx = cx + dx;
				int gy = cy + dy;
				if (gx < 0 || gx >= GRID_W || gy < 0 || gy >= GRID_H) { continue; }
				int cell = gy * GRID_W + gx;
				uint n = min(projCount[cell], uint(MAX_PER_CELL));
				for (uint s = 0u; s < n; s++) {
					int j = projData[cell * MAX_PER_CELL + int(s)];
					if (projMeta[j].y == 0 || !hostile(projMeta[j].x, faction[i])) { continue; }
					vec2 toMe = p - projPos[j];
					float d = length(toMe);
					if (d < 1e-4 || d > PROJ_DODGE_RANGE) { continue; }
					vec2 v = projVel[j];
					float vl = length(v);
					if (vl < 1e-4) { continue; }
					vec2 pdir = v / vl;
					if (dot(pdir, toMe / d) <= PROJ_DODGE_ALIGN) { continue; }
					float urgency = (1.0 - d / PROJ_DODGE_RANGE) * 1.5 * spd;
					float sgn = (pdir.x * toMe.y - pdir.y * toMe.x) < 0.0 ? -1.0 : 1.0;
					pdodge += vec2(-pdir.y, pdir.x) * sgn * urgency;
				}
			}
		}
	}

	vec2 movement = vec2(0.0);
	ivec2 ms = moveState[i];
	if (moving) {
		movement = heading * spd;
		vec2 tot = avoid + pdodge;
		float al = length(tot);
		if (al > 1e-5 && dot(tot / al, heading) < -0.3) {
			float side = heading.x * tot.y - heading.y * tot.x;
			float sgn = side < 0.0 ? -1.0 : 1.0;
			movement += vec2(-heading.y, heading.x) * sgn * LATERAL_STEER * spd;
			ms.y = min(ms.y + 1, BACKOFF_MAX);
		} else {
			ms.y = max(ms.y - BACKOFF_DECAY, 0);
		}
		ms.x = 0;
	} else {
		if (spd > 0.0) { ms.x = 1; }
		ms.y = max(ms.y - BACKOFF_DECAY, 0);
	}
	moveState[i] = ms;

	p += (movement + avoid + pdodge) * dt;
	pos[i] = p;

	// Combat target: nearest live hostile within combat range.
	if (health[i] <= 0.0 || faction[i] < 0) {
		target[i] = -1;
		return;
	}
	int r = int(ceil(COMBAT_RANGE / CELL_SIZE)) + 1;
	cx = clamp(int(p.x / CELL_SIZE), 0, GRID_W - 1);
	cy = clamp(int(p.y / CELL_SIZE), 0, GRID_H - 1);
	int best = -1;
	float bestD2 = COMBAT_RANGE * COMBAT_RANGE;
	for (int gy = cy - r; gy <= cy + r; gy++) {
		if (gy < 0 || gy >= GRID_H) { continue; }
		for (int gx = cx - r; gx <= cx + r; gx++) {
			if (gx < 0 || gx >= GRID_W) { continue; }
			int cell = gy * GRID_W + gx;
			uint n = min(npcCount[cell], uint(MAX_PER_CELL));
			for (uint s = 0u; s < n; s++) {
				int j = npcData[cell * MAX_PER_CELL + int(s)];
				if (j == int(i) || health[j] <= 0.0) { continue; }
				if (!hostile(faction[i], faction[j])) { continue; }
				vec2 o = pos[j] - p;
				float d2 = dot(o, o);
				if (d2 <= bestD2) { best = j; bestD2 = d2; }
			}
		}
	}
	target[i] = best;
}

void main() {
	uint i = gl_GlobalInvocationID.x;
	if (mode == 0u) { clearCell(i); }
	else if (mode == 1u) { insert(i); }
	else { simulate(i); }
}
`

const projShaderTemplate = `#version 430

layout(local_size_x = %[1]d, local_size_y = 1, local_size_z = 1) in;

const int   GRID_W       = %[2]d;
const int   GRID_H       = %[3]d;
const float CELL_SIZE    = %[4]f;
const int   MAX_PER_CELL = %[5]d;
const float HIT_HALF_LENGTH = %[6]f;
const float HIT_HALF_WIDTH  = %[7]f;

const float TOMBSTONE = -9000.0;

layout(std430, binding = 0)  readonly buffer PosBuf     { vec2 pos[]; };
layout(std430, binding = 3)  readonly buffer HealthBuf  { float health[]; };
layout(std430, binding = 4)  readonly buffer FactionBuf { int faction[]; };
layout(std430, binding = 7)  readonly buffer NpcGridCountBuf { uint npcCount[]; };
layout(std430, binding = 8)  readonly buffer NpcGridDataBuf  { int npcData[]; };
layout(std430, binding = 9)  buffer ProjGridCountBuf { uint projCount[]; };
layout(std430, binding = 10) buffer ProjGridDataBuf  { int projData[]; };
layout(std430, binding = 11) buffer ProjPosBuf  { vec2 projPos[]; };
layout(std430, binding = 12) readonly buffer ProjVelBuf  { vec2 projVel[]; };
layout(std430, binding = 13) buffer ProjMetaBuf { ivec2 projMeta[]; }; // x=faction y=active
layout(std430, binding = 14) readonly buffer SimBuf {
	uint mode;
	uint npcN;
	uint projN;
	float dt;
};
layout(std430, binding = 15) buffer DropBuf { uint npcDrops; uint projDrops; };
layout(std430, binding = 16) buffer ProjLifeBuf { float projLife[]; };
layout(std430, binding = 17) buffer HitBuf { ivec2 hits[]; }; // x=target y=processed

bool hostile(int a, int b) {
	if (a < 0 || b < 0) { return false; }
	return a != b;
}

void clearCell(uint j) {
	if (j < uint(GRID_W * GRID_H)) {
		projCount[j] = 0u;
	}
}

void insert(uint j) {
	if (j >= projN) { return; }
	if (projMeta[j].y == 0) { return; }
	vec2 p = projPos[j];
	if (p.x < TOMBSTONE) { return; }
	int cx = clamp(int(p.x / CELL_SIZE), 0, GRID_W - 1);
	int cy = clamp(int(p.y / CELL_SIZE), 0, GRID_H - 1);
	int cell = cy * GRID_W + cx;
	uint idx = atomicAdd(projCount[cell], 1u);
	if (idx < uint(MAX_PER_CELL)) {
		projData[cell * MAX_PER_CELL + int(idx)] = int(j);
	} else {
		atomicAdd(projDrops, 1u);
	}
}

void advance(uint j) {
	if (j >= projN) { return; }
	if (projMeta[j].y == 0) { return; }

	projLife[j] -= dt;
	if (projLife[j] <= 0.0) {
		hits[j] = ivec2(-2, 0);
		projMeta[j].y = 0;
		projPos[j] = vec2(TOMBSTONE - 1000.0);
		return;
	}

	vec2 p = projPos[j] + projVel[j] * dt;
	projPos[j] = p;

	if (hits[j].x != -1) { return; }

	vec2 v = projVel[j];
	float v2 = dot(v, v);
	bool disk = v2 < 0.001;
	vec2 f = disk ? vec2(0.0) : v / sqrt(v2);

	int cx = clamp(int(p.x / CELL_SIZE), 0, GRID_W - 1);
	int cy = clamp(int(p.y / CELL_SIZE), 0, GRID_H - 1);
	for (int dy = -1; dy <= 1; dy++) {
		for (int dx = -1; dx <= 1; dx++) {
			int gx = cx + dx;
			int gy = cy + dy;
			if (gx < 0 || gx >= GRID_W || gy < 0 || gy >= GRID_H) { continue; }
			int cell = gy * GRID_W + gx;
			uint n = min(npcCount[cell], uint(MAX_PER_CELL));
			for (uint s = 0u; s < n; s++) {
				int k = npcData[cell * MAX_PER_CELL + int(s)];
				if (health[k] <= 0.0 || !hostile(projMeta[j].x, faction[k])) { continue; }
				vec2 t = pos[k] - p;
				bool hit;
				if (disk) {
					hit = dot(t, t) < HIT_HALF_LENGTH * HIT_HALF_LENGTH;
				} else {
					float along = dot(t, f);
					float across = dot(t, vec2(-f.y, f.x));
					hit = abs(along) < HIT_HALF_LENGTH && abs(across) < HIT_HALF_WIDTH;
				}
				if (hit) {
					hits[j] = ivec2(k, 0);
					projMeta[j].y = 0;
					projPos[j] = vec2(TOMBSTONE - 1000.0);
					return;
				}
			}
		}
	}
}

void main() {
	uint j = gl_GlobalInvocationID.x;
	if (mode == 0u) { clearCell(j); }
	else if (mode == 1u) { insert(j); }
	else { advance(j); }
}
`

// workgroupSize is the 1D local size both kernels dispatch with.
const workgroupSize = 256

// NPCShaderSource renders the NPC kernel with constants from p.
func NPCShaderSource(p *Params) string {
	return fmt.Sprintf(npcShaderTemplate,
		workgroupSize, p.GridW, p.GridH, p.CellSize, p.MaxPerCell,
		p.SepRadius, p.SepStrength, p.ArrivalThreshold,
		p.BackoffMax, p.BackoffDecay, p.LateralSteer,
		p.CombatRange, p.ProjDodgeRange, p.ProjDodgeAlignment,
		p.StationaryPush, p.SameFaction, p.MoverVsSettled, p.SettledShoved,
		p.DodgeOvertake, p.DodgeCross, p.DodgeHeadOn, p.DodgeCap, p.AvoidCap,
	)
}

// ProjShaderSource renders the projectile kernel with constants from p.
func ProjShaderSource(p *Params) string {
	return fmt.Sprintf(projShaderTemplate,
		workgroupSize, p.GridW, p.GridH, p.CellSize, p.MaxPerCell,
		p.ProjHalfLength, p.ProjHalfWidth,
	)
}
